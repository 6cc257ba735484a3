package ops

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lucsky/cuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid/v2"

	"github.com/zenstack-dev/zen-go/schema"
)

// applyDefaults fills missing scalar fields of a create payload with
// their generated defaults. Client-side generators (cuid, uuid, ulid,
// nanoid, now) run here, before insertion; autoincrement and literal
// database defaults are left to the database. auth() defaults project
// the acting auth context and are skipped when the projection is
// absent, falling back to the database default if any.
func (h *Handler) applyDefaults(m *schema.Model, data map[string]any) {
	now := time.Now().UTC()
	for _, f := range m.ScalarFields() {
		if _, present := data[f.Name]; present {
			continue
		}
		if f.UpdatedAt {
			data[f.Name] = now
			continue
		}
		d := f.Default
		if d == nil {
			continue
		}
		switch {
		case len(d.AuthPath) > 0:
			if v, ok := authProjection(h.opts.Auth, d.AuthPath); ok && v != nil {
				data[f.Name] = v
			}
		case d.Call != "":
			if v, ok := generateDefault(d, now); ok {
				data[f.Name] = v
			}
		case d.Value != nil:
			data[f.Name] = d.Value
		}
	}
}

func generateDefault(d *schema.Default, now time.Time) (any, bool) {
	switch d.Call {
	case schema.CallNow:
		return now, true
	case schema.CallCUID:
		return formatID(d.Format, cuid.New), true
	case schema.CallUUID:
		gen := uuid.NewString
		if d.Version == 7 {
			gen = func() string {
				id, err := uuid.NewV7()
				if err != nil {
					return uuid.NewString()
				}
				return id.String()
			}
		}
		return formatID(d.Format, gen), true
	case schema.CallULID:
		return formatID(d.Format, func() string { return ulid.Make().String() }), true
	case schema.CallNanoID:
		return formatID(d.Format, func() string {
			id, err := gonanoid.New()
			if err != nil {
				return cuid.New()
			}
			return id
		}), true
	case schema.CallAutoincrement:
		// Assigned by the database.
		return nil, false
	}
	return nil, false
}

// formatID expands a "prefix_%s_suffix" format around generated IDs.
// An escaped \%s is the literal %s; consecutive verbs each generate a
// fresh ID. An empty format is the bare ID.
func formatID(format string, gen func() string) string {
	if format == "" {
		return gen()
	}
	var b strings.Builder
	for i := 0; i < len(format); {
		switch {
		case strings.HasPrefix(format[i:], `\%s`):
			b.WriteString("%s")
			i += 3
		case strings.HasPrefix(format[i:], "%s"):
			b.WriteString(gen())
			i += 2
		default:
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

// authProjection walks a path into the auth value.
func authProjection(auth any, path []string) (any, bool) {
	if auth == nil {
		return nil, false
	}
	cur := auth
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
