package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/carrot/pkg/domain/interfaces"
	"github.com/m-mizutani/carrot/pkg/domain/model"
)

// Fallback values used when the registry can not tell us a version
const (
	FallbackDrupal  = "^9"
	FallbackCiviCRM = "dev-master"
	FallbackPHP     = "7.0"
)

// packageCache memoizes registry lookups for one matrix build. Failed lookups are not stored
// and will be retried on the next request for the same package.
type packageCache struct {
	registry interfaces.RegistryClient

	mu      sync.Mutex
	entries map[string]*model.PackageVersion
}

func (c *packageCache) get(ctx context.Context, pkg string) (*model.PackageVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pv, ok := c.entries[pkg]; ok {
		return pv, nil
	}

	pv, err := c.registry.LatestVersion(ctx, pkg)
	if err != nil {
		return nil, err
	}
	c.entries[pkg] = pv
	return pv, nil
}

func (c *packageCache) all() []*model.PackageVersion {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*model.PackageVersion, 0, len(c.entries))
	for _, pv := range c.entries {
		out = append(out, pv)
	}
	return out
}

// Resolver turns placeholders into concrete version strings. A Resolver belongs to a single
// matrix build; create a new one for every build.
type Resolver struct {
	cache *packageCache
}

// NewResolver creates a resolver with an empty package cache
func NewResolver(registry interfaces.RegistryClient) *Resolver {
	return &Resolver{
		cache: &packageCache{
			registry: registry,
			entries:  make(map[string]*model.PackageVersion),
		},
	}
}

// Substitute replaces every placeholder found in s. Tokens are handled in table order, so
// PHPSensible sees the packages fetched for the other tokens. A token that does not occur in s
// is never resolved.
func (r *Resolver) Substitute(ctx context.Context, s string) string {
	for _, token := range model.Placeholders() {
		if !token.In(s) {
			continue
		}
		s = token.ReplaceIn(s, jsonEscape(r.Resolve(ctx, token)))
	}
	return s
}

// Resolve returns the version string for token. It never fails; registry problems are logged
// and a fallback is returned.
func (r *Resolver) Resolve(ctx context.Context, token model.Placeholder) string {
	switch token {
	case model.PlaceholderDrupalLatest:
		pv := r.latest(ctx, model.PackageDrupalCore)
		if pv == nil {
			return FallbackDrupal
		}
		return "~" + pv.Version

	case model.PlaceholderDrupalPrior:
		v := r.latestSemver(ctx, model.PackageDrupalCore)
		if v == nil || (v.Major() == 0 && v.Minor() == 0) {
			return FallbackDrupal
		}
		if v.Minor() == 0 {
			return fmt.Sprintf("^%d", v.Major()-1)
		}
		// composer adjusts the patch digit itself
		return fmt.Sprintf("~%d.%d.1", v.Major(), v.Minor()-1)

	case model.PlaceholderCiviDev:
		return FallbackCiviCRM

	case model.PlaceholderCiviReleaseCandidate:
		v := r.latestSemver(ctx, model.PackageCiviCRMCore)
		if v == nil {
			return FallbackCiviCRM
		}
		return fmt.Sprintf("%d.%d.x-dev", v.Major(), v.Minor()+1)

	case model.PlaceholderCiviLatest:
		pv := r.latest(ctx, model.PackageCiviCRMCore)
		if pv == nil {
			return FallbackCiviCRM
		}
		return pv.Version

	case model.PlaceholderPHPSensible:
		return r.sensiblePHP()

	default:
		ctxlog.From(ctx).Warn("Unknown placeholder", "token", int(token))
		return token.String()
	}
}

func (r *Resolver) latest(ctx context.Context, pkg string) *model.PackageVersion {
	pv, err := r.cache.get(ctx, pkg)
	if err != nil {
		ctxlog.From(ctx).Warn("Registry lookup failed, using fallback version",
			"package", pkg,
			"error", err,
		)
		return nil
	}
	return pv
}

func (r *Resolver) latestSemver(ctx context.Context, pkg string) *semver.Version {
	pv := r.latest(ctx, pkg)
	if pv == nil {
		return nil
	}
	v, err := semver.NewVersion(pv.Version)
	if err != nil {
		ctxlog.From(ctx).Warn("Unparseable registry version, using fallback version",
			"package", pkg,
			"version", pv.Version,
			"error", err,
		)
		return nil
	}
	return v
}

// sensiblePHP returns the highest minimum PHP version declared by the packages fetched so far,
// as major.minor, and never less than FallbackPHP
func (r *Resolver) sensiblePHP() string {
	highest := semver.MustParse(FallbackPHP)
	for _, pv := range r.cache.all() {
		v := phpMinimum(pv.PHPConstraint)
		if v != nil && v.GreaterThan(highest) {
			highest = v
		}
	}
	return fmt.Sprintf("%d.%d", highest.Major(), highest.Minor())
}

// phpMinimum reads the first alternative of a composer constraint such as ">=7.2.5 <8.3" or
// "~7.3 || ~8" and returns its major.minor
func phpMinimum(constraint string) *semver.Version {
	first, _, _ := strings.Cut(constraint, "|")
	first = strings.TrimLeft(strings.TrimSpace(first), "<>=!~^v ")
	if fields := strings.Fields(first); len(fields) > 0 {
		first = fields[0]
	}

	first = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, first)

	major, rest, _ := strings.Cut(first, ".")
	minor, _, _ := strings.Cut(rest, ".")
	if major == "" {
		return nil
	}
	if minor == "" {
		minor = "0"
	}

	v, err := semver.NewVersion(major + "." + minor)
	if err != nil {
		return nil
	}
	return v
}

// jsonEscape makes value safe to place inside a JSON string literal
func jsonEscape(value string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return value
	}
	quoted := strings.TrimRight(buf.String(), "\n")
	return quoted[1 : len(quoted)-1]
}
