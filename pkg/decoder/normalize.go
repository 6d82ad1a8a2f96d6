package decoder

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/walletlink/walletlink-go/pkg/schema"
)

// valueFunc converts one protobuf value of a declared kind.
type valueFunc func(n *normalizer, f *schema.Field, v protoreflect.Value, path string) (any, error)

// kindHandlers is the dispatch table keyed by declared field kind.
var kindHandlers map[schema.Kind]valueFunc

func init() {
	kindHandlers = map[schema.Kind]valueFunc{
		schema.KindBytes:   normalizeBytes,
		schema.KindInt64:   normalizeInt64,
		schema.KindMessage: normalizeNested,
		schema.KindEnum:    normalizeEnum,
		schema.KindMap:     normalizeMap,
		schema.KindScalar:  normalizeScalar,
	}
}

type normalizer struct {
	omitUnpopulated bool
}

// Normalize converts msg to a JSON-safe map following ms.
func Normalize(ms *schema.MessageSchema, msg protoreflect.Message, opts ...Option) (map[string]any, error) {
	o := applyOptions(opts)
	n := &normalizer{omitUnpopulated: o.omitUnpopulated}
	return n.message(ms, msg, "")
}

func (n *normalizer) message(ms *schema.MessageSchema, msg protoreflect.Message, path string) (map[string]any, error) {
	out := make(map[string]any, len(ms.Fields))

	for _, f := range ms.Fields {
		fd := f.Descriptor()
		fpath := joinPath(path, f.Name)
		populated := msg.Has(fd)

		switch {
		case f.Repeated:
			if !populated && n.omitUnpopulated {
				continue
			}
			// Unset lists are emitted as [] rather than null.
			list := msg.Get(fd).List()
			items := make([]any, 0, list.Len())
			for i := 0; i < list.Len(); i++ {
				item, err := n.value(f, list.Get(i), fmt.Sprintf("%s[%d]", fpath, i))
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			out[f.Name] = items

		case !populated && n.omitUnpopulated:
			continue

		case !populated && f.HasPresence():
			out[f.Name] = nil

		default:
			v, err := n.value(f, msg.Get(fd), fpath)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
	}
	return out, nil
}

func (n *normalizer) value(f *schema.Field, v protoreflect.Value, path string) (any, error) {
	h, ok := kindHandlers[f.Kind]
	if !ok {
		return nil, &FieldError{Path: path, Err: fmt.Errorf("unsupported field kind %s", f.Kind)}
	}
	return h(n, f, v, path)
}

func normalizeBytes(_ *normalizer, _ *schema.Field, v protoreflect.Value, _ string) (any, error) {
	return hex.EncodeToString(v.Bytes()), nil
}

func normalizeInt64(_ *normalizer, f *schema.Field, v protoreflect.Value, _ string) (any, error) {
	switch f.Descriptor().Kind() {
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return float64(v.Uint()), nil
	default:
		return float64(v.Int()), nil
	}
}

func normalizeNested(n *normalizer, f *schema.Field, v protoreflect.Value, path string) (any, error) {
	return n.message(f.Message, v.Message(), path)
}

func normalizeEnum(_ *normalizer, f *schema.Field, v protoreflect.Value, path string) (any, error) {
	number := int32(v.Enum())
	name, ok := f.Enum.Lookup(number)
	if !ok {
		return nil, &FieldError{
			Path: path,
			Err:  fmt.Errorf("%w: %d is not a constant of %s", ErrUnknownEnumValue, number, f.Enum.Name),
		}
	}
	return name, nil
}

func normalizeMap(n *normalizer, f *schema.Field, v protoreflect.Value, path string) (any, error) {
	m := v.Map()
	out := make(map[string]any, m.Len())

	var rangeErr error
	m.Range(func(k protoreflect.MapKey, val protoreflect.Value) bool {
		key := strings.ToValidUTF8(k.String(), "\uFFFD")
		item, err := n.value(f.Value, val, fmt.Sprintf("%s[%q]", path, key))
		if err != nil {
			rangeErr = err
			return false
		}
		out[key] = item
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}

func normalizeScalar(_ *normalizer, f *schema.Field, v protoreflect.Value, _ string) (any, error) {
	switch f.Descriptor().Kind() {
	case protoreflect.BoolKind:
		return v.Bool(), nil
	case protoreflect.StringKind:
		// proto2 strings are not validated on unmarshal.
		return strings.ToValidUTF8(v.String(), "\uFFFD"), nil
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return jsonFloat(v.Float()), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return float64(v.Int()), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return float64(v.Uint()), nil
	default:
		return v.Interface(), nil
	}
}

// jsonFloat maps values JSON cannot represent to their protobuf JSON names.
func jsonFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
