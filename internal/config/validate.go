package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/harunnryd/gymslot/internal/errors"
)

// Location resolves schedule.timezone; "Local" and empty mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Schedule.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("schedule.timezone %q: %v", name, err))
	}
	return loc, nil
}

// ValidateBooking checks the fields needed to talk to the booking site.
func (c *Config) ValidateBooking() error {
	base := strings.TrimSpace(c.Booking.BaseURL)
	if base == "" {
		return errors.InvalidInput("booking.base_url is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.InvalidInput(fmt.Sprintf("booking.base_url %q is not an absolute URL", base))
	}
	if strings.TrimSpace(c.Booking.Username) == "" {
		return errors.InvalidInput("booking.username is required")
	}
	if c.Booking.Password == "" {
		return errors.InvalidInput("booking.password is required (set it in config, GYMSLOT_BOOKING_PASSWORD or 'gymslot secret set')")
	}
	if strings.TrimSpace(c.Booking.FacilityID) == "" {
		return errors.InvalidInput("booking.facility_id is required")
	}

	for name, value := range map[string][2]string{
		"booking.login_timeout": {c.Booking.LoginTimeout, DefaultBookingLoginTimeout},
		"booking.book_timeout":  {c.Booking.BookTimeout, DefaultBookingBookTimeout},
		"booking.session_ttl":   {c.Booking.SessionTTL, DefaultBookingSessionTTL},
	} {
		d, err := DurationOrDefault(value[0], value[1])
		if err != nil {
			return errors.InvalidInput(fmt.Sprintf("%s: %v", name, err))
		}
		if d <= 0 {
			return errors.InvalidInput(fmt.Sprintf("%s must be positive", name))
		}
	}
	return nil
}

// ValidateChannel checks the settings of the selected messaging channel.
func (c *Config) ValidateChannel() error {
	switch c.Adapters.Channel {
	case ChannelTelegram:
		if strings.TrimSpace(c.Adapters.Telegram.BotToken) == "" {
			return errors.InvalidInput("adapters.telegram.bot_token is required")
		}
		if c.Adapters.Telegram.ChatID == 0 {
			return errors.InvalidInput("adapters.telegram.chat_id is required")
		}
	case ChannelSlack:
		if strings.TrimSpace(c.Adapters.Slack.BotToken) == "" {
			return errors.InvalidInput("adapters.slack.bot_token is required")
		}
		if strings.TrimSpace(c.Adapters.Slack.SigningSecret) == "" {
			return errors.InvalidInput("adapters.slack.signing_secret is required")
		}
		if strings.TrimSpace(c.Adapters.Slack.ChannelID) == "" {
			return errors.InvalidInput("adapters.slack.channel_id is required")
		}
	case ChannelConsole, ChannelNone:
	default:
		return errors.InvalidInput(fmt.Sprintf("adapters.channel %q is not one of telegram, slack, console, none", c.Adapters.Channel))
	}
	return nil
}

// ValidateServer checks the health endpoint settings used by the daemon.
func (c *Config) ValidateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.InvalidInput(fmt.Sprintf("invalid port: %d (must be 1-65535)", c.Server.Port))
	}
	return nil
}
