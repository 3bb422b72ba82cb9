// Package toolname derives stable tool identifiers from HTTP operations.
//
// A raw name is the method and path template joined by a single space, e.g.
// "GET /users/{user_id}/tasks". Normalization is pure: the registry and the
// dispatcher can both derive the name for an operation and always agree.
package toolname

import (
	"regexp"
	"strings"
)

// ProtocolNameLimit is the hard cap on tool name length imposed by the
// tool-calling protocol. A configured custom cap can lower it, never raise it.
const ProtocolNameLimit = 64

// Sentinel is returned for raw names that cannot be normalized.
const Sentinel = "unknown_tool"

// ValidName is the pattern every registered tool name must match.
var ValidName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

var (
	// Uninformative path prefixes that carry no meaning in a tool name.
	uninformativePattern = regexp.MustCompile(`/(api|rest|public)/?`)
	placeholderPattern   = regexp.MustCompile(`\{([^}]+)\}`)
	nonAlnumPattern      = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	repeatedUnderscores  = regexp.MustCompile(`_+`)
)

// CapSource identifies which limit bound a truncation.
type CapSource string

const (
	CapProtocol CapSource = "protocol"
	CapCustom   CapSource = "custom"
)

// Options controls normalization. Prefix is prepended before the length cap
// is applied. MaxLength lowers the cap when in (0, ProtocolNameLimit); values
// of ProtocolNameLimit or above are ignored in favor of the protocol cap.
type Options struct {
	Prefix    string
	MaxLength int
}

// Detail is the full normalization result, including truncation info the
// registry uses for warning logs.
type Detail struct {
	Name      string
	Truncated bool
	Cap       int
	CapSource CapSource
}

// Normalize converts a raw "METHOD /path" name into a tool identifier.
func Normalize(rawName string, opts Options) string {
	return NormalizeDetail(rawName, opts).Name
}

// NormalizeDetail is Normalize with truncation metadata.
func NormalizeDetail(rawName string, opts Options) Detail {
	limit, source := effectiveCap(opts.MaxLength)
	detail := Detail{Cap: limit, CapSource: source}

	method, path, ok := strings.Cut(rawName, " ")
	if !ok {
		detail.Name = Sentinel
		return detail
	}

	// Drop common uninformative prefixes (/api/, /rest/, /public/).
	path = uninformativePattern.ReplaceAllString(path, "/")

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if placeholderPattern.MatchString(part) {
			// /users/{id} becomes users_by_id; multi-placeholder segments
			// chain the parameter names.
			params := placeholderPattern.FindAllStringSubmatch(part, -1)
			names := make([]string, 0, len(params))
			for _, m := range params {
				names = append(names, m[1])
			}
			part = placeholderPattern.ReplaceAllString(part, "") + "_by_" + strings.Join(names, "_")
		}
		parts[i] = nonAlnumPattern.ReplaceAllString(part, "_")
	}

	name := strings.ToLower(method) + "_" + strings.Join(parts, "_")
	name = repeatedUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		detail.Name = Sentinel
		return detail
	}

	name = opts.Prefix + name

	if len(name) > limit {
		name = name[:limit]
		detail.Truncated = true
	}

	detail.Name = name
	return detail
}

func effectiveCap(custom int) (int, CapSource) {
	if custom > 0 && custom < ProtocolNameLimit {
		return custom, CapCustom
	}
	return ProtocolNameLimit, CapProtocol
}
