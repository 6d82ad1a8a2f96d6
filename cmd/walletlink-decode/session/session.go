// Package session implements the command interpreter behind walletlink-decode.
package session

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/walletlink/walletlink-go/pkg/decoder"
	"github.com/walletlink/walletlink-go/pkg/log"
	"github.com/walletlink/walletlink-go/pkg/schema"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// Commands lists the interactive command names.
var Commands = []string{"decode", "name", "types", "omit", "help", "quit"}

// Session decodes messages against one registry.
type Session struct {
	registry *schema.Registry
	id       string
	logger   log.Logger
	capture  bool
	omit     bool
	indent   bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger reports decode events to l.
func WithLogger(l log.Logger, capturePayload bool) Option {
	return func(s *Session) {
		s.logger = l
		s.capture = capturePayload
	}
}

// WithOmitUnpopulated drops unset fields from output.
func WithOmitUnpopulated(omit bool) Option {
	return func(s *Session) { s.omit = omit }
}

// WithIndent pretty-prints JSON output.
func WithIndent(indent bool) Option {
	return func(s *Session) { s.indent = indent }
}

// New creates a session.
func New(registry *schema.Registry, opts ...Option) *Session {
	s := &Session{registry: registry, id: uuid.NewString(), logger: log.NoopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session id attached to protocol log events.
func (s *Session) ID() string {
	return s.id
}

// ParseType accepts a numeric type id or a registered message name.
func (s *Session) ParseType(arg string) (uint16, error) {
	if n, err := strconv.ParseUint(arg, 10, 16); err == nil {
		return uint16(n), nil
	}
	if id, ok := s.registry.TypeID(arg); ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", decoder.ErrUnknownMessageType, arg)
}

func (s *Session) decoderFor(typeArg, hexData string) (*decoder.MessageDecoder, error) {
	typeID, err := s.ParseType(typeArg)
	if err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(strings.TrimPrefix(hexData, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}

	opts := []decoder.Option{
		decoder.WithLogger(s.logger, s.capture),
		decoder.WithSessionID(s.id),
	}
	if s.omit {
		opts = append(opts, decoder.OmitUnpopulated())
	}
	return decoder.New(s.registry, typeID, data, opts...), nil
}

// DecodeHex decodes a hex payload of the given type and returns JSON.
func (s *Session) DecodeHex(typeArg, hexData string) ([]byte, error) {
	d, err := s.decoderFor(typeArg, hexData)
	if err != nil {
		return nil, err
	}
	value, err := d.DecodeJSON()
	if err != nil {
		return nil, err
	}
	if s.indent {
		return json.MarshalIndent(value, "", "  ")
	}
	return json.Marshal(value)
}

// Execute runs one interactive command line and reports whether the
// session should end.
func (s *Session) Execute(line string, w io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.printHelp(w)
	case "types", "t":
		s.printTypes(w)
	case "name", "n":
		err = s.cmdName(w, args)
	case "omit":
		err = s.cmdOmit(w, args)
	case "decode", "d":
		err = s.cmdDecode(w, args)
	default:
		// "<type> <hex>" shorthand
		err = s.cmdDecode(w, parts)
	}
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return false
}

func (s *Session) cmdDecode(w io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: decode <type> <hex>", ErrUsage)
	}
	out, err := s.DecodeHex(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func (s *Session) cmdName(w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: name <type>", ErrUsage)
	}
	typeID, err := s.ParseType(args[0])
	if err != nil {
		return err
	}
	name, err := decoder.New(s.registry, typeID, nil).MessageName()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d %s\n", typeID, name)
	return nil
}

func (s *Session) cmdOmit(w io.Writer, args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("%w: omit on|off", ErrUsage)
	}
	s.omit = args[0] == "on"
	fmt.Fprintf(w, "omit unpopulated: %s\n", args[0])
	return nil
}

func (s *Session) printTypes(w io.Writer) {
	for _, id := range s.registry.Types() {
		if desc, ok := s.registry.Resolve(id); ok {
			fmt.Fprintf(w, "%5d  %s\n", id, desc.Name)
		}
	}
}

func (s *Session) printHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  decode <type> <hex>   Decode a payload (type is an id or message name)
  <type> <hex>          Same as decode
  name <type>           Resolve a type id to its message name
  types                 List registered message types
  omit on|off           Drop unset fields from output
  help                  Show this help
  quit                  Exit
`)
}
