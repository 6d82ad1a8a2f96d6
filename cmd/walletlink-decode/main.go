// Command walletlink-decode decodes hardware wallet protocol messages into JSON.
//
// The message schema is loaded from a serialized FileDescriptorSet whose
// MessageType enum maps wire type ids to message names.
//
// Usage:
//
//	walletlink-decode [flags] <type> <hex>
//	walletlink-decode [flags] -i
//
// Flags:
//
//	-config string          Configuration file path
//	-descriptors string     FileDescriptorSet path (overrides config)
//	-enum string            Message type enum full name
//	-i                      Interactive mode
//	-omit                   Drop unset fields from output
//	-indent                 Pretty-print JSON
//	-protocol-log string    Write protocol events to this CBOR file
//
// Examples:
//
//	protoc --include_imports --descriptor_set_out=messages.pb messages*.proto
//	walletlink-decode -descriptors messages.pb Features 0a097472657a6f722e696f
//	walletlink-decode -descriptors messages.pb -i
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/walletlink/walletlink-go/cmd/walletlink-decode/session"
	"github.com/walletlink/walletlink-go/internal/logging"
	"github.com/walletlink/walletlink-go/pkg/config"
	"github.com/walletlink/walletlink-go/pkg/schema"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	descriptors := flag.String("descriptors", "", "FileDescriptorSet path (overrides config)")
	enumName := flag.String("enum", "", "Message type enum full name (overrides config)")
	interactive := flag.Bool("i", false, "Interactive mode")
	omit := flag.Bool("omit", false, "Drop unset fields from output")
	indent := flag.Bool("indent", false, "Pretty-print JSON")
	protocolLog := flag.String("protocol-log", "", "Write protocol events to this CBOR file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *descriptors != "" {
		cfg.Schema.DescriptorSet = *descriptors
	}
	if *enumName != "" {
		cfg.Schema.MessageTypeEnum = *enumName
	}
	if *protocolLog != "" {
		cfg.ProtocolLog.Path = *protocolLog
	}

	logger := logging.New(cfg.Logging, "decode")

	if cfg.Schema.DescriptorSet == "" {
		logger.Error("no descriptor set configured", "flag", "-descriptors", "env", config.EnvDescriptorSet)
		os.Exit(1)
	}
	reg, err := schema.LoadDescriptorSetFile(cfg.Schema.DescriptorSet, cfg.Schema.MessageTypeEnum)
	if err != nil {
		logger.Error("failed to load schema", "path", cfg.Schema.DescriptorSet, "error", err)
		os.Exit(1)
	}
	logger.Debug("schema loaded", "types", reg.Len(), "enum", cfg.Schema.MessageTypeEnum)

	plog, closeLog, err := logging.ProtocolLogger(cfg.ProtocolLog, logger)
	if err != nil {
		logger.Error("failed to open protocol log", "path", cfg.ProtocolLog.Path, "error", err)
		os.Exit(1)
	}
	defer closeLog()

	sess := session.New(reg,
		session.WithLogger(plog, cfg.ProtocolLog.CapturePayload),
		session.WithOmitUnpopulated(*omit),
		session.WithIndent(*indent),
	)

	if *interactive {
		if err := runInteractive(sess); err != nil {
			logger.Error("interactive mode failed", "error", err)
			closeLog()
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: walletlink-decode [flags] <type> <hex>")
		flag.PrintDefaults()
		closeLog()
		os.Exit(2)
	}

	out, err := sess.DecodeHex(flag.Arg(0), flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runInteractive(sess *session.Session) error {
	items := make([]readline.PrefixCompleterInterface, 0, len(session.Commands))
	for _, c := range session.Commands {
		items = append(items, readline.PcItem(c))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "decode> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    readline.NewPrefixCompleter(items...),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sess.Execute("help", rl.Stdout())
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if sess.Execute(strings.TrimSpace(line), rl.Stdout()) {
			return nil
		}
	}
}
