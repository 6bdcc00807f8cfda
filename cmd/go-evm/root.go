package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/runtime"
	"github.com/entropyio/go-evm/word"
)

// version is a plain constant: this emulator has no build-time ldflags
// pipeline of its own (unlike the teacher's server binary, which stamps
// theirs via Makefile -ldflags).
const version = "0.1.0"

// params mirrors the reference engine's own typed-params-struct
// convention (command/server/params.go): one flag per field, parsed
// once at the start of RunE, then consumed by the rest of RunE.
type params struct {
	addressHex string
	callerHex  string
	originHex  string
	valueHex   string
	dataHex    string
	forkURL    string

	address common.Address
	caller  common.Address
	origin  common.Address
	value   word.Word
	data    []byte
}

func (p *params) parse() error {
	if p.addressHex != "" {
		p.address = common.HexToAddress(p.addressHex)
	}
	if p.callerHex != "" {
		p.caller = common.HexToAddress(p.callerHex)
	}
	p.origin = p.caller
	if p.originHex != "" {
		p.origin = common.HexToAddress(p.originHex)
	}
	if p.valueHex != "" {
		p.value = word.FromBytes(common.Hex2Bytes(p.valueHex))
	}
	if p.dataHex != "" {
		p.data = common.Hex2Bytes(p.dataHex)
	}
	return nil
}

func newRootCommand() *cobra.Command {
	p := &params{}

	cmd := &cobra.Command{
		Use:     "go-evm <bytecode-file-or-0x-literal>",
		Short:   "Runs EVM bytecode against an in-memory state",
		Version: version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := p.parse(); err != nil {
				return err
			}
			code, err := readBytecode(args[0])
			if err != nil {
				return err
			}

			opts := []runtime.Option{
				runtime.WithCaller(p.caller),
				runtime.WithOrigin(p.origin),
				runtime.WithValue(p.value),
				runtime.WithCallData(p.data),
			}
			if p.addressHex != "" {
				opts = append(opts, runtime.WithAddress(p.address))
			}
			if p.forkURL != "" {
				opts = append(opts, runtime.WithFork(p.forkURL))
			}

			rt := runtime.New(opts...)
			result, err := rt.Interpret(code, runtime.DebugNone, true)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "success: %v\n", result.Success)
			fmt.Fprintf(cmd.OutOrStdout(), "output: %s\n", common.Bytes2Hex(result.Output))
			for _, l := range result.Logs {
				fmt.Fprintf(cmd.OutOrStdout(), "log: address=%s topics=%d data=%s\n", l.Address.Hex(), len(l.Topics), common.Bytes2Hex(l.Data))
			}

			if !result.Success {
				cmd.SilenceUsage = true
				return errHaltedUnsuccessfully
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&p.addressHex, "address", "", "executing contract address (20-byte hex)")
	flags.StringVar(&p.callerHex, "caller", "", "caller address (20-byte hex)")
	flags.StringVar(&p.originHex, "origin", "", "origin address (20-byte hex, default: caller)")
	flags.StringVar(&p.valueHex, "value", "", "call value (hex)")
	flags.StringVar(&p.dataHex, "data", "", "calldata (hex)")
	flags.StringVar(&p.forkURL, "fork", "", "JSON-RPC endpoint to fork state from")

	return cmd
}

var errHaltedUnsuccessfully = fmt.Errorf("execution halted unsuccessfully (revert/invalid/error)")

// readBytecode accepts either a 0x-prefixed hex literal or a path to a
// file holding the bytecode as hex text or raw binary.
func readBytecode(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		return common.Hex2Bytes(arg), nil
	}

	raw, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("reading bytecode file %q: %w", arg, err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if isHexText(trimmed) {
		return common.Hex2Bytes(trimmed), nil
	}
	return raw, nil
}

func isHexText(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
