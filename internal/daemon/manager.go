package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/pathutil"
	"github.com/harunnryd/gymslot/internal/store"
)

// instanceLockTimeout bounds the wait for another daemon to release the state directory.
const instanceLockTimeout = 2 * time.Second

type Daemon struct {
	cfg             *config.Config
	stateDir        string
	components      []Component
	initOrder       []string
	health          HealthStatus
	uptimeStart     time.Time
	mu              sync.RWMutex
	healthCheckDone chan struct{}
	forceCleanup    bool
	instanceLock    *store.FileLock
}

func NewDaemon(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	stateDir, err := store.ResolveStateDir(cfg.Store.StateDir)
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}

	return &Daemon{
		cfg:             cfg,
		stateDir:        stateDir,
		components:      make([]Component, 0),
		health:          StatusStarting,
		uptimeStart:     time.Now(),
		healthCheckDone: make(chan struct{}),
	}, nil
}

func (d *Daemon) AddComponent(comp Component) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.components = append(d.components, comp)
	slog.Info("Component registered", "component", comp.Name(), "total_components", len(d.components))
}

// Start runs the daemon until ctx is cancelled or SIGINT/SIGTERM arrives.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Gymslot daemon starting...", "state_dir", d.stateDir)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.validateConfig(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := d.preInitChecks(ctx, d.forceCleanup); err != nil {
		return fmt.Errorf("pre-init checks failed: %w", err)
	}

	if err := d.acquireInstanceLock(ctx); err != nil {
		return err
	}
	defer d.releaseInstanceLock()

	if err := d.initializeComponents(ctx); err != nil {
		d.rollback(ctx)
		return fmt.Errorf("component initialization failed: %w", err)
	}

	if err := d.startComponents(ctx); err != nil {
		startupShutdownTimeout, timeoutErr := config.DurationOrDefault(d.cfg.Daemon.StartupShutdownTimeout, config.DefaultDaemonStartupShutdown)
		if timeoutErr != nil {
			return fmt.Errorf("parse daemon startup shutdown timeout: %w", timeoutErr)
		}
		d.gracefulShutdown(context.Background(), startupShutdownTimeout)
		return fmt.Errorf("component startup failed: %w", err)
	}

	d.setHealth(StatusRunning)
	slog.Info("Gymslot daemon is running", "components", len(d.components), "channel", d.cfg.Adapters.Channel)

	go d.startHealthMonitor(ctx)

	<-ctx.Done()

	slog.Info("Context cancelled, initiating graceful shutdown", "reason", ctx.Err())
	d.setHealth(StatusStopping)
	close(d.healthCheckDone)
	shutdownTimeout, err := config.DurationOrDefault(d.cfg.Daemon.ShutdownTimeout, config.DefaultDaemonShutdownTimeout)
	if err != nil {
		return fmt.Errorf("parse daemon shutdown timeout: %w", err)
	}
	if err := d.gracefulShutdown(context.Background(), shutdownTimeout); err != nil {
		return err
	}

	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return nil
}

func (d *Daemon) Health() HealthStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.uptimeStart)
}

func (d *Daemon) SetForceCleanup(force bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forceCleanup = force
}

func (d *Daemon) ComponentHealth() map[string]*ComponentHealth {
	d.mu.RLock()
	components := make([]Component, len(d.components))
	copy(components, d.components)
	d.mu.RUnlock()

	result := make(map[string]*ComponentHealth)
	for _, comp := range components {
		health, err := comp.Health(context.Background())
		if health == nil {
			health = &ComponentHealth{Name: comp.Name()}
		}
		if err != nil {
			health.Healthy = false
			health.Error = err
		}
		result[comp.Name()] = health
	}
	return result
}

func (d *Daemon) setHealth(status HealthStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.health = status
}

func (d *Daemon) validateConfig() error {
	slog.Info("Validating configuration...")

	if err := d.cfg.ValidateServer(); err != nil {
		return err
	}
	if err := d.cfg.ValidateBooking(); err != nil {
		return err
	}
	if err := d.cfg.ValidateChannel(); err != nil {
		return err
	}
	if _, err := d.cfg.Location(); err != nil {
		return err
	}

	if _, err := pathutil.EnsureDir(d.stateDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	slog.Info("Configuration validated", "state_dir", d.stateDir, "port", d.cfg.Server.Port)
	return nil
}

func (d *Daemon) preInitChecks(ctx context.Context, forceCleanup bool) error {
	slog.Info("Running pre-init checks...", "state_dir", d.stateDir)

	staleLockTTL, err := config.DurationOrDefault(d.cfg.Daemon.StaleLockTTL, config.DefaultDaemonStaleLockTTL)
	if err != nil {
		return fmt.Errorf("parse daemon stale lock ttl: %w", err)
	}

	for _, lockPath := range []string{store.ChoiceLockPath(d.stateDir), store.DaemonLockPath(d.stateDir)} {
		if err := store.CleanupStaleLock(lockPath, staleLockTTL, forceCleanup); err != nil {
			slog.Warn("Failed to cleanup stale lock", "path", lockPath, "error", err)
		}
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("pre-init checks cancelled: %w", ctx.Err())
	default:
		slog.Info("Pre-init checks completed")
		return nil
	}
}

// acquireInstanceLock keeps a second daemon on the same state directory from
// firing the triggers twice.
func (d *Daemon) acquireInstanceLock(ctx context.Context) error {
	lock, err := store.AcquireFileLock(ctx, "daemon", store.DaemonLockPath(d.stateDir), &store.FileLockConfig{
		LockTimeout: instanceLockTimeout,
		LockRetry:   100 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("state directory %s is in use by another daemon: %w", d.stateDir, err)
	}

	d.mu.Lock()
	d.instanceLock = lock
	d.mu.Unlock()
	return nil
}

func (d *Daemon) releaseInstanceLock() {
	d.mu.Lock()
	lock := d.instanceLock
	d.instanceLock = nil
	d.mu.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}

func (d *Daemon) initializeComponents(ctx context.Context) error {
	slog.Info("Initializing components...")

	if err := d.validateDependencies(); err != nil {
		return fmt.Errorf("dependency validation failed: %w", err)
	}

	initOrder, err := d.resolveInitOrder()
	if err != nil {
		return fmt.Errorf("failed to resolve init order: %w", err)
	}
	d.mu.Lock()
	d.initOrder = initOrder
	d.mu.Unlock()

	for _, compName := range initOrder {
		comp := d.getComponentByName(compName)
		if comp == nil {
			continue
		}
		slog.Info("Initializing component...", "component", comp.Name())
		if err := comp.Init(ctx); err != nil {
			slog.Error("Component initialization failed", "component", comp.Name(), "error", err)
			return fmt.Errorf("component %s init failed: %w", comp.Name(), err)
		}
		slog.Info("Component initialized", "component", comp.Name())
	}

	slog.Info("All components initialized", "count", len(d.components))
	return nil
}

// startComponents starts in dependency order, so the scheduler only fires once
// the channel it reports to is up.
func (d *Daemon) startComponents(ctx context.Context) error {
	slog.Info("Starting components...")

	for _, name := range d.startOrder() {
		comp := d.getComponentByName(name)
		if comp == nil {
			continue
		}
		slog.Info("Starting component...", "component", name)
		if err := comp.Start(ctx); err != nil {
			slog.Error("Component startup failed", "component", name, "error", err)
			return fmt.Errorf("component %s startup failed: %w", name, err)
		}
		slog.Info("Component started", "component", name)
	}

	slog.Info("All components started", "count", len(d.components))
	return nil
}

func (d *Daemon) startOrder() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.initOrder) > 0 {
		return append([]string(nil), d.initOrder...)
	}
	names := make([]string, 0, len(d.components))
	for _, comp := range d.components {
		names = append(names, comp.Name())
	}
	return names
}

// shutdownOrder is the reverse of the start order.
func (d *Daemon) shutdownOrder() []string {
	order := d.startOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func (d *Daemon) gracefulShutdown(ctx context.Context, timeout time.Duration) error {
	slog.Info("Graceful shutdown initiated", "timeout", timeout)

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.shutdownComponents(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			slog.Error("Shutdown completed with error", "error", err)
		} else {
			slog.Info("Graceful shutdown completed")
		}
		return err
	case <-shutdownCtx.Done():
		if ctx.Err() != nil {
			slog.Info("Shutdown cancelled by parent context", "reason", ctx.Err())
			return fmt.Errorf("shutdown cancelled: %w", ctx.Err())
		}
		slog.Error("Shutdown timeout exceeded", "timeout", timeout)
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}

func (d *Daemon) shutdownComponents(ctx context.Context) error {
	var errs []error
	for _, name := range d.shutdownOrder() {
		comp := d.getComponentByName(name)
		if comp == nil {
			continue
		}

		slog.Info("Stopping component...", "component", name)
		if err := comp.Stop(ctx); err != nil {
			slog.Error("Component stop failed", "component", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		} else {
			slog.Info("Component stopped", "component", name)
		}
	}

	d.setHealth(StatusStopped)
	return errors.Join(errs...)
}

func (d *Daemon) rollback(ctx context.Context) {
	slog.Warn("Rolling back initialized components...")

	for _, name := range d.shutdownOrder() {
		comp := d.getComponentByName(name)
		if comp == nil {
			continue
		}
		slog.Info("Rolling back component...", "component", name)
		if err := comp.Stop(ctx); err != nil {
			slog.Error("Rollback failed", "component", name, "error", err)
		}
	}

	d.setHealth(StatusStopped)
}

func (d *Daemon) getComponentByName(name string) Component {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, comp := range d.components {
		if comp.Name() == name {
			return comp
		}
	}
	return nil
}

func (d *Daemon) Component(name string) Component {
	return d.getComponentByName(name)
}

func (d *Daemon) startHealthMonitor(ctx context.Context) {
	healthCheckInterval, err := config.DurationOrDefault(d.cfg.Daemon.HealthCheckInterval, config.DefaultDaemonHealthInterval)
	if err != nil {
		slog.Error("Failed to parse daemon health check interval", "error", err)
		return
	}

	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.healthCheckDone:
			return
		case <-ticker.C:
			d.checkComponentHealth(ctx)
		}
	}
}

func (d *Daemon) checkComponentHealth(ctx context.Context) {
	healths := d.ComponentHealth()
	if ctx.Err() != nil {
		return
	}

	unhealthyCount := 0
	for name, health := range healths {
		if !health.Healthy {
			unhealthyCount++
			slog.Warn("Component unhealthy", "component", name, "error", health.Error)
		}
	}

	if unhealthyCount > 0 {
		slog.Warn("Daemon has unhealthy components", "count", unhealthyCount, "total", len(healths))
	} else {
		slog.Debug("All components healthy", "count", len(healths))
	}
}

func (d *Daemon) validateDependencies() error {
	componentMap := make(map[string]Component)
	for _, comp := range d.components {
		if _, dup := componentMap[comp.Name()]; dup {
			return fmt.Errorf("component %s registered twice", comp.Name())
		}
		componentMap[comp.Name()] = comp
	}

	for _, comp := range d.components {
		for _, depName := range comp.Dependencies() {
			if _, exists := componentMap[depName]; !exists {
				return fmt.Errorf("component %s depends on %s which is not registered", comp.Name(), depName)
			}
		}
	}
	return nil
}

// resolveInitOrder is a depth-first topological sort; ties keep registration order.
func (d *Daemon) resolveInitOrder() ([]string, error) {
	visited := make(map[string]bool)
	inProgress := make(map[string]bool)
	order := []string{}

	var visit func(name string) error
	visit = func(name string) error {
		if inProgress[name] {
			return fmt.Errorf("circular dependency detected involving %s", name)
		}
		if visited[name] {
			return nil
		}

		comp := d.getComponentByName(name)
		if comp == nil {
			return fmt.Errorf("component %s not found", name)
		}

		inProgress[name] = true
		for _, depName := range comp.Dependencies() {
			if err := visit(depName); err != nil {
				return err
			}
		}
		inProgress[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, comp := range d.components {
		if err := visit(comp.Name()); err != nil {
			return nil, err
		}
	}

	slog.Info("Initialization order resolved", "order", order)
	return order, nil
}
