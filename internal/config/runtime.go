package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/spf13/viper"
)

// Model kinds that can be trained and served.
const (
	ModelKindLogistic = "logistic"
	ModelKindBayes    = "bayes"
)

// Inference bounds.
const (
	DefaultTopK = 3
	MaxTopK     = 20
)

// Runtime holds the process settings read from flags, env and config file.
type Runtime struct {
	Overrides       map[string]int
	ModelPath       string
	ModelKind       string
	DatabasePath    string
	ServerAddr      string
	CredentialsFile string
	CertDir         string
	TLSHosts        []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PerCategory     int
	Seed            int64
	DefaultTopK     int
	MaxTopK         int
	TLS             bool
}

// SetDefaults registers the runtime defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model.path", "model.json")
	v.SetDefault("model.kind", ModelKindLogistic)
	v.SetDefault("database.path", "$HOME/.local/share/pfm/pfm.db")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", "$HOME/.config/pfm/certs")
	v.SetDefault("server.tls_hosts", []string{})
	v.SetDefault("training.per_category", 60)
	v.SetDefault("training.overrides", map[string]int{"Other": 50})
	v.SetDefault("training.seed", 42)
	v.SetDefault("inference.default_topk", DefaultTopK)
	v.SetDefault("inference.max_topk", MaxTopK)
	v.SetDefault("gcs.credentials_file", "")

	// MODEL_PATH is honoured for deployments that set it directly.
	_ = v.BindEnv("model.path", "PFM_MODEL_PATH", "MODEL_PATH")
}

// LoadRuntime reads and validates the runtime settings from v.
func LoadRuntime(v *viper.Viper) (*Runtime, error) {
	overrides, err := parseOverrides(v.Get("training.overrides"))
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		ModelPath:       ExpandPath(v.GetString("model.path")),
		ModelKind:       strings.ToLower(v.GetString("model.kind")),
		DatabasePath:    ExpandPath(v.GetString("database.path")),
		ServerAddr:      v.GetString("server.addr"),
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		TLS:             v.GetBool("server.tls"),
		CertDir:         ExpandPath(v.GetString("server.cert_dir")),
		TLSHosts:        v.GetStringSlice("server.tls_hosts"),
		PerCategory:     v.GetInt("training.per_category"),
		Overrides:       overrides,
		Seed:            v.GetInt64("training.seed"),
		DefaultTopK:     v.GetInt("inference.default_topk"),
		MaxTopK:         v.GetInt("inference.max_topk"),
		CredentialsFile: ExpandPath(v.GetString("gcs.credentials_file")),
	}

	if err := rt.Validate(); err != nil {
		return nil, err
	}
	return rt, nil
}

// Validate checks the runtime settings.
func (r *Runtime) Validate() error {
	if r.ModelPath == "" {
		return fmt.Errorf("%w: model.path", common.ErrMissingConfig)
	}
	if r.ModelKind != ModelKindLogistic && r.ModelKind != ModelKindBayes {
		return common.InvalidConfigf("model.kind must be %q or %q, got %q", ModelKindLogistic, ModelKindBayes, r.ModelKind)
	}
	if r.TLS && r.CertDir == "" {
		return fmt.Errorf("%w: server.cert_dir", common.ErrMissingConfig)
	}
	if r.PerCategory < 0 {
		return common.InvalidConfigf("training.per_category must be >= 0, got %d", r.PerCategory)
	}
	for category, n := range r.Overrides {
		if n < 0 {
			return common.InvalidConfigf("training override for %q must be >= 0, got %d", category, n)
		}
	}
	if r.MaxTopK < 1 || r.MaxTopK > MaxTopK {
		return common.InvalidConfigf("inference.max_topk must be in 1..%d, got %d", MaxTopK, r.MaxTopK)
	}
	if r.DefaultTopK < 1 || r.DefaultTopK > r.MaxTopK {
		return common.InvalidConfigf("inference.default_topk must be in 1..%d, got %d", r.MaxTopK, r.DefaultTopK)
	}
	return nil
}

// ParseOverride parses a "Category=count" flag value.
func ParseOverride(s string) (string, int, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, common.InvalidConfigf("override %q must look like Category=count", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return "", 0, common.InvalidConfigf("override %q has an invalid count", s)
	}
	return name, n, nil
}

func parseOverrides(raw any) (map[string]int, error) {
	out := make(map[string]int)
	switch v := raw.(type) {
	case nil:
		return out, nil
	case map[string]int:
		for k, n := range v {
			out[k] = n
		}
	case map[string]any:
		for k, n := range v {
			count, err := toInt(n)
			if err != nil {
				return nil, common.InvalidConfigf("training override for %q: %v", k, err)
			}
			out[k] = count
		}
	case []string:
		for _, s := range v {
			name, n, err := ParseOverride(s)
			if err != nil {
				return nil, err
			}
			out[name] = n
		}
	default:
		return nil, common.InvalidConfigf("training.overrides has unsupported type %T", raw)
	}
	return out, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported count type %T", v)
	}
}

// ResolveOverrides maps override keys onto catalog names. Keys are matched
// case-insensitively because viper lower-cases map keys read from files.
func (r *Registry) ResolveOverrides(overrides map[string]int) (map[string]int, error) {
	out := make(map[string]int, len(overrides))
	for key, n := range overrides {
		matched := false
		for _, category := range r.categories {
			if strings.EqualFold(key, category) {
				out[category] = n
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: override for %q", common.ErrUnknownCategory, key)
		}
	}
	return out, nil
}
