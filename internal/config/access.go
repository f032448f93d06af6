package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Allowlist is an immutable, case-insensitive set of privileged emails.
type Allowlist struct {
	emails map[string]struct{}
}

func NewAllowlist(emails ...string) Allowlist {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		key := normalizeEmail(email)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return Allowlist{emails: set}
}

func (a Allowlist) Contains(email string) bool {
	key := normalizeEmail(email)
	if key == "" {
		return false
	}
	_, ok := a.emails[key]
	return ok
}

func (a Allowlist) Len() int {
	return len(a.emails)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type accessFile struct {
	PrivilegedEmails []string `mapstructure:"privilegedEmails"`
}

// AllowlistHolder serves the merged env and file allowlist, reloading the file on change.
type AllowlistHolder struct {
	current atomic.Value // holds Allowlist
	static  []string
}

// NewStaticAllowlistHolder builds a holder that never reloads.
func NewStaticAllowlistHolder(emails ...string) *AllowlistHolder {
	holder := &AllowlistHolder{static: emails}
	holder.current.Store(NewAllowlist(emails...))
	return holder
}

func NewAllowlistHolder(cfg Config, log *zap.Logger) (*AllowlistHolder, error) {
	log = log.Named("config.access")
	holder := &AllowlistHolder{static: cfg.Access.PrivilegedEmails}

	v := viper.New()
	if cfg.Access.ConfigFile != "" {
		v.SetConfigFile(cfg.Access.ConfigFile)
	} else {
		v.SetConfigName("access")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/clubos")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(NewAllowlist(holder.static...))
		log.Info("access config file not found, using environment allowlist",
			zap.Int("privileged_emails", len(holder.static)),
		)
		return holder, nil
	}

	file, err := readAccessFile(v)
	if err != nil {
		return nil, err
	}
	holder.store(file)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := readAccessFile(v)
		if err != nil {
			log.Warn("access config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.store(updated)
		log.Info("access config reloaded",
			zap.String("file", e.Name),
			zap.Int("privileged_emails", holder.Get().Len()),
		)
	})

	return holder, nil
}

func readAccessFile(v *viper.Viper) (accessFile, error) {
	var file accessFile
	if err := v.UnmarshalKey("access", &file); err != nil {
		return accessFile{}, err
	}
	return file, nil
}

func (h *AllowlistHolder) store(file accessFile) {
	emails := make([]string, 0, len(h.static)+len(file.PrivilegedEmails))
	emails = append(emails, h.static...)
	emails = append(emails, file.PrivilegedEmails...)
	h.current.Store(NewAllowlist(emails...))
}

func (h *AllowlistHolder) Get() Allowlist {
	if h == nil {
		return Allowlist{}
	}
	list, _ := h.current.Load().(Allowlist)
	return list
}
