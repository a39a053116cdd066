package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/store"
)

type mockComponent struct {
	name         string
	events       *[]string
	dependencies []string
	initCalled   bool
	startCalled  bool
	stopCalled   bool
	healthCalled bool
	initError    error
	startError   error
	stopError    error
	healthError  error
	healthResult *ComponentHealth
}

func newMockComponent(name string, dependencies []string) *mockComponent {
	return &mockComponent{
		name:         name,
		dependencies: dependencies,
		healthResult: &ComponentHealth{
			Name:    name,
			Healthy: true,
		},
	}
}

func (m *mockComponent) Name() string {
	return m.name
}

func (m *mockComponent) Dependencies() []string {
	return m.dependencies
}

func (m *mockComponent) record(event string) {
	if m.events != nil {
		*m.events = append(*m.events, event+":"+m.name)
	}
}

func (m *mockComponent) Init(ctx context.Context) error {
	m.record("init")
	m.initCalled = true
	return m.initError
}

func (m *mockComponent) Start(ctx context.Context) error {
	m.record("start")
	m.startCalled = true
	return m.startError
}

func (m *mockComponent) Stop(ctx context.Context) error {
	m.record("stop")
	m.stopCalled = true
	return m.stopError
}

func (m *mockComponent) Health(ctx context.Context) (*ComponentHealth, error) {
	m.healthCalled = true
	return m.healthResult, m.healthError
}

func validConfig(stateDir string) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Booking: config.BookingConfig{
			BaseURL:    "https://gym.example.com",
			Username:   "member",
			Password:   "secret",
			FacilityID: "12",
		},
		Schedule: config.ScheduleConfig{Timezone: "UTC"},
		Store:    config.StoreConfig{StateDir: stateDir},
		Adapters: config.AdaptersConfig{Channel: config.ChannelNone},
		Daemon:   config.DaemonConfig{StaleLockTTL: "15m"},
	}
}

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	d, err := NewDaemon(validConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("NewDaemon() failed: %v", err)
	}
	return d
}

func TestNewDaemon(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr bool
	}{
		{
			name:    "valid daemon",
			cfg:     validConfig(t.TempDir()),
			wantErr: false,
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDaemon(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDaemon() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if d.stateDir != tt.cfg.Store.StateDir {
					t.Errorf("stateDir = %v, want %v", d.stateDir, tt.cfg.Store.StateDir)
				}
				if len(d.components) != 0 {
					t.Errorf("components = %v, want 0", len(d.components))
				}
			}
		})
	}
}

func TestValidateConfig_CreatesStateDir(t *testing.T) {
	stateDir := t.TempDir() + "/nested/state"

	d, err := NewDaemon(validConfig(stateDir))
	if err != nil {
		t.Fatalf("NewDaemon() failed: %v", err)
	}

	if err := d.validateConfig(); err != nil {
		t.Fatalf("validateConfig() failed: %v", err)
	}

	if _, err := os.Stat(stateDir); err != nil {
		t.Fatalf("expected state dir to exist at %s: %v", stateDir, err)
	}
}

func TestValidateConfig_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "bad port", mutate: func(c *config.Config) { c.Server.Port = 0 }},
		{name: "missing base url", mutate: func(c *config.Config) { c.Booking.BaseURL = "" }},
		{name: "missing password", mutate: func(c *config.Config) { c.Booking.Password = "" }},
		{name: "unknown channel", mutate: func(c *config.Config) { c.Adapters.Channel = "pager" }},
		{name: "telegram without token", mutate: func(c *config.Config) { c.Adapters.Channel = config.ChannelTelegram }},
		{name: "bad timezone", mutate: func(c *config.Config) { c.Schedule.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t.TempDir())
			tt.mutate(cfg)
			d, err := NewDaemon(cfg)
			if err != nil {
				t.Fatalf("NewDaemon() failed: %v", err)
			}
			if err := d.validateConfig(); err == nil {
				t.Error("validateConfig() error = nil, want error")
			}
		})
	}
}

func TestInstanceLock(t *testing.T) {
	stateDir := t.TempDir()
	ctx := context.Background()

	first, err := NewDaemon(validConfig(stateDir))
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewDaemon(validConfig(stateDir))
	if err != nil {
		t.Fatal(err)
	}

	if err := first.acquireInstanceLock(ctx); err != nil {
		t.Fatalf("first acquireInstanceLock() error = %v", err)
	}
	if err := second.acquireInstanceLock(ctx); err == nil {
		t.Fatal("second daemon on the same state dir should not get the lock")
	}

	first.releaseInstanceLock()
	if err := second.acquireInstanceLock(ctx); err != nil {
		t.Fatalf("acquireInstanceLock() after release error = %v", err)
	}
	second.releaseInstanceLock()
}

func TestPreInitChecks_RemovesStaleLocks(t *testing.T) {
	stateDir := t.TempDir()
	d, err := NewDaemon(validConfig(stateDir))
	if err != nil {
		t.Fatal(err)
	}

	lockPath := store.ChoiceLockPath(stateDir)
	if err := os.WriteFile(lockPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}

	if err := d.preInitChecks(context.Background(), false); err != nil {
		t.Fatalf("preInitChecks() error = %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("stale lock removed without force: %v", err)
	}

	if err := d.preInitChecks(context.Background(), true); err != nil {
		t.Fatalf("preInitChecks() error = %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("stale lock still present: %v", err)
	}
}

func TestAddComponent(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{})
	comp2 := newMockComponent("Comp2", []string{"Comp1"})

	d.AddComponent(comp1)
	d.AddComponent(comp2)

	if len(d.components) != 2 {
		t.Errorf("components = %v, want 2", len(d.components))
	}

	order := d.shutdownOrder()
	if len(order) != 2 {
		t.Fatalf("shutdownOrder = %v, want 2", len(order))
	}
	if order[0] != "Comp2" {
		t.Errorf("shutdownOrder[0] = %v, want Comp2", order[0])
	}
}

func TestLifecycleOrder(t *testing.T) {
	d := newTestDaemon(t)
	var events []string

	http := newMockComponent("HTTP", []string{"Scheduler"})
	sched := newMockComponent("Scheduler", []string{"State"})
	state := newMockComponent("State", nil)
	for _, c := range []*mockComponent{http, sched, state} {
		c.events = &events
		d.AddComponent(c)
	}

	ctx := context.Background()
	if err := d.initializeComponents(ctx); err != nil {
		t.Fatalf("initializeComponents() error = %v", err)
	}
	if err := d.startComponents(ctx); err != nil {
		t.Fatalf("startComponents() error = %v", err)
	}
	if err := d.shutdownComponents(ctx); err != nil {
		t.Fatalf("shutdownComponents() error = %v", err)
	}

	want := []string{
		"init:State", "init:Scheduler", "init:HTTP",
		"start:State", "start:Scheduler", "start:HTTP",
		"stop:HTTP", "stop:Scheduler", "stop:State",
	}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDuplicateComponent(t *testing.T) {
	d := newTestDaemon(t)
	d.AddComponent(newMockComponent("Comp", nil))
	d.AddComponent(newMockComponent("Comp", nil))

	if err := d.initializeComponents(context.Background()); err == nil {
		t.Error("Expected error for duplicate component, got nil")
	}
}

func TestInitializeComponents(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{})
	comp2 := newMockComponent("Comp2", []string{"Comp1"})

	d.AddComponent(comp1)
	d.AddComponent(comp2)

	ctx := context.Background()
	err := d.initializeComponents(ctx)

	if err != nil {
		t.Errorf("initializeComponents() error = %v", err)
	}

	if !comp1.initCalled {
		t.Error("Comp1.Init() was not called")
	}

	if !comp2.initCalled {
		t.Error("Comp2.Init() was not called")
	}
}

func TestInitializeComponentsCircularDependency(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{"Comp2"})
	comp2 := newMockComponent("Comp2", []string{"Comp1"})

	d.AddComponent(comp1)
	d.AddComponent(comp2)

	ctx := context.Background()
	err := d.initializeComponents(ctx)

	if err == nil {
		t.Error("Expected error for circular dependency, got nil")
	}
}

func TestInitializeComponentsMissingDependency(t *testing.T) {
	d := newTestDaemon(t)

	comp := newMockComponent("Comp", []string{"NonExistent"})

	d.AddComponent(comp)

	ctx := context.Background()
	err := d.initializeComponents(ctx)

	if err == nil {
		t.Error("Expected error for missing dependency, got nil")
	}
}

func TestStartComponents(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{})
	comp2 := newMockComponent("Comp2", []string{})

	d.AddComponent(comp1)
	d.AddComponent(comp2)

	ctx := context.Background()
	err := d.startComponents(ctx)

	if err != nil {
		t.Errorf("startComponents() error = %v", err)
	}

	if !comp1.startCalled {
		t.Error("Comp1.Start() was not called")
	}

	if !comp2.startCalled {
		t.Error("Comp2.Start() was not called")
	}
}

func TestShutdownComponents(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{})
	comp2 := newMockComponent("Comp2", []string{})
	comp2.stopError = errors.New("flush failed")

	d.AddComponent(comp1)
	d.AddComponent(comp2)

	ctx := context.Background()
	err := d.shutdownComponents(ctx)

	if err == nil {
		t.Error("shutdownComponents() error = nil, want the Comp2 stop error")
	}

	if !comp1.stopCalled {
		t.Error("Comp1.Stop() was not called")
	}

	if !comp2.stopCalled {
		t.Error("Comp2.Stop() was not called")
	}
}

func TestComponentHealth(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{})
	comp1.healthResult.Healthy = true

	comp2 := newMockComponent("Comp2", []string{})
	comp2.healthResult.Healthy = false
	comp2.healthResult.Error = fmt.Errorf("mock error")

	comp3 := newMockComponent("Comp3", []string{})
	comp3.healthResult = nil
	comp3.healthError = errors.New("probe failed")

	d.AddComponent(comp1)
	d.AddComponent(comp2)
	d.AddComponent(comp3)

	healths := d.ComponentHealth()

	if len(healths) != 3 {
		t.Errorf("ComponentHealth() returned %v healths, want 3", len(healths))
	}

	if healths["Comp3"].Healthy || healths["Comp3"].Error == nil {
		t.Error("Comp3 should be unhealthy with its probe error")
	}

	if healths["Comp1"].Healthy != true {
		t.Error("Comp1 should be healthy")
	}

	if healths["Comp2"].Healthy != false {
		t.Error("Comp2 should be unhealthy")
	}

	if healths["Comp2"].Error == nil {
		t.Error("Comp2.Error should not be nil")
	}
}

func TestRollback(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{})
	comp2 := newMockComponent("Comp2", []string{})

	d.AddComponent(comp1)
	d.AddComponent(comp2)

	ctx := context.Background()
	d.rollback(ctx)

	if !comp1.stopCalled {
		t.Error("Comp1.Stop() was not called during rollback")
	}

	if !comp2.stopCalled {
		t.Error("Comp2.Stop() was not called during rollback")
	}

	if d.Health() != StatusStopped {
		t.Errorf("Health = %v, want StatusStopped", d.Health())
	}
}

func TestGetComponentByName(t *testing.T) {
	d := newTestDaemon(t)

	comp1 := newMockComponent("Comp1", []string{})
	comp2 := newMockComponent("Comp2", []string{})

	d.AddComponent(comp1)
	d.AddComponent(comp2)

	tests := []struct {
		name       string
		searchName string
		wantNil    bool
	}{
		{
			name:       "existing component",
			searchName: "Comp1",
			wantNil:    false,
		},
		{
			name:       "non-existing component",
			searchName: "NonExistent",
			wantNil:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := d.getComponentByName(tt.searchName)
			if (comp == nil) != tt.wantNil {
				t.Errorf("getComponentByName() = %v, wantNil %v", comp, tt.wantNil)
			}
		})
	}
}
