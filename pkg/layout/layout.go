// Package layout resolves where versioned source envelopes live in object
// storage.
//
// An envelope is addressed by the triple (environment, canonical source id,
// source version id). The environment selects a bucket and a path prefix;
// the rest of the key is fixed:
//
//	<env-prefix>/<canonical-source-id>/<source-version-id>/envelope/envelope.json
package layout

import (
	"context"
	"strings"
)

// DefaultCanonicalSourceID is used when neither a canonical source id nor a
// project id is supplied.
const DefaultCanonicalSourceID = "document"

const envelopeSuffix = "envelope/envelope.json"

// Layout is the storage location for one environment.
type Layout struct {
	Bucket    string `yaml:"bucket" json:"bucket"`
	EnvPrefix string `yaml:"env_prefix" json:"env_prefix"`
}

// Resolver loads the Layout for an environment name. An empty env selects
// the resolver's default environment.
type Resolver interface {
	LoadLayout(ctx context.Context, env string) (Layout, error)
}

// EnvelopePrefix returns <env-prefix>/<cid>/<svid> with surplus slashes
// removed at each join. An empty env prefix yields <cid>/<svid>.
func EnvelopePrefix(l Layout, canonicalSourceID, sourceVersionID string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.EnvPrefix, canonicalSourceID, sourceVersionID} {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// EnvelopeKey returns the object key of the envelope under prefix.
func EnvelopeKey(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return envelopeSuffix
	}
	return prefix + "/" + envelopeSuffix
}

// CanonicalSourceID applies the cid, then project id, then "document"
// fallback.
func CanonicalSourceID(canonicalSourceID, projectID string) string {
	if canonicalSourceID != "" {
		return canonicalSourceID
	}
	if projectID != "" {
		return projectID
	}
	return DefaultCanonicalSourceID
}

// EnvName is the environment reported in envelope metadata: env when set,
// otherwise the layout's prefix without its trailing slash.
func EnvName(env string, l Layout) string {
	if env != "" {
		return env
	}
	return strings.TrimRight(l.EnvPrefix, "/")
}
