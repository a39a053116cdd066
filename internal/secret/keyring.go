// Package secret keeps the booking password in the OS keyring.
package secret

import (
	"fmt"
	"strings"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name; the account is the booking username.
const Service = config.AppName

func GetPassword(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", errors.InvalidInput("booking.username is required to look up the password")
	}
	pw, err := keyring.Get(Service, username)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", errors.NotFound(fmt.Sprintf("no password stored for %s", username))
		}
		return "", errors.Wrap(err, "failed to read keyring")
	}
	return pw, nil
}

func SetPassword(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.InvalidInput("booking.username is required to store the password")
	}
	if password == "" {
		return errors.InvalidInput("password is empty")
	}
	if err := keyring.Set(Service, username, password); err != nil {
		return errors.Wrap(err, "failed to write keyring")
	}
	return nil
}

func DeletePassword(username string) error {
	if err := keyring.Delete(Service, username); err != nil {
		if err == keyring.ErrNotFound {
			return errors.NotFound(fmt.Sprintf("no password stored for %s", username))
		}
		return errors.Wrap(err, "failed to delete from keyring")
	}
	return nil
}

// FillPassword loads the booking password from the keyring when the config
// leaves it empty. A missing entry is not an error; validation reports it.
func FillPassword(cfg *config.BookingConfig) error {
	if cfg.Password != "" || strings.TrimSpace(cfg.Username) == "" {
		return nil
	}
	pw, err := GetPassword(cfg.Username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}
	cfg.Password = pw
	return nil
}
