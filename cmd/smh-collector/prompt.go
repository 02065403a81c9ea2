package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/spacemeshos/smh-collector/config"
)

// errCancelled is returned when the operator aborts a prompt.
var errCancelled = errors.New("cancelled")

// prompter asks for settings on an interactive terminal, or reads them
// from a non-interactive stdin.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int  // Terminal file descriptor, -1 when stdin is not a terminal.
	enable bool // False disables every prompt except the seed phrase.
}

func newPrompter(in io.Reader, out io.Writer, enable bool) *prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &prompter{in: bufio.NewReader(in), out: out, fd: fd, enable: enable}
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line, giving up when ctx is done. EOF before any
// input counts as a cancel.
func (p *prompter) readLine(ctx context.Context) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- lineResult{strings.TrimSpace(line), err}
	}()
	select {
	case <-ctx.Done():
		return "", errCancelled
	case r := <-ch:
		if r.err == io.EOF {
			return "", errCancelled
		}
		return r.line, r.err
	}
}

// ask prompts for a value, returning def on an empty answer.
func (p *prompter) ask(ctx context.Context, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// askSecret reads a value without echo on a terminal. Off a terminal the
// value is read as a plain line.
func (p *prompter) askSecret(ctx context.Context, label string) (string, error) {
	if p.fd < 0 {
		return p.readLine(ctx)
	}

	state, err := term.GetState(p.fd)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(p.out, "%s: ", label)

	ch := make(chan lineResult, 1)
	go func() {
		b, err := term.ReadPassword(p.fd)
		ch <- lineResult{string(b), err}
	}()
	select {
	case <-ctx.Done():
		term.Restore(p.fd, state)
		fmt.Fprintln(p.out)
		return "", errCancelled
	case r := <-ch:
		fmt.Fprintln(p.out) // newline after hidden input
		if r.err == io.EOF {
			return "", errCancelled
		}
		return strings.TrimSpace(r.line), r.err
	}
}

// fill prompts for every setting still empty in cfg and returns the seed
// phrase.
func (p *prompter) fill(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Network == "" {
		if !p.enable {
			return "", fmt.Errorf("network is required")
		}
		n, err := p.chooseNetwork(ctx)
		if err != nil {
			return "", err
		}
		cfg.Network = n
	}
	params, err := cfg.NetworkParams()
	if err != nil {
		return "", err
	}

	if cfg.Genesis == "" && params.AskGenesis && p.enable {
		for {
			g, err := p.ask(ctx, "Paste Genesis ID", params.GenesisID)
			if err != nil {
				return "", err
			}
			if g == "" {
				fmt.Fprintln(p.out, "Genesis ID is required for this network")
				continue
			}
			cfg.Genesis = g
			if _, err := cfg.GenesisID(); err != nil {
				fmt.Fprintf(p.out, "Invalid genesis ID: %v\n", err)
				cfg.Genesis = ""
				continue
			}
			break
		}
	}

	mnemonic, err := p.askSecret(ctx, "Paste your mnemonics")
	if err != nil {
		return "", err
	}

	if cfg.Scan.Accounts == 0 && p.enable {
		for {
			s, err := p.ask(ctx, "How many accounts to check?", strconv.Itoa(config.DefaultAccounts))
			if err != nil {
				return "", err
			}
			n, err := strconv.ParseUint(s, 10, 32)
			if err != nil || n < 1 {
				fmt.Fprintln(p.out, "Enter a whole number of at least 1")
				continue
			}
			cfg.Scan.Accounts = uint32(n)
			break
		}
	}

	if cfg.Destination == "" && p.enable {
		for {
			d, err := p.ask(ctx, "Destination address", "")
			if err != nil {
				return "", err
			}
			cfg.Destination = d
			if _, err := cfg.DestinationAddress(); err != nil {
				fmt.Fprintf(p.out, "Invalid address: %v\n", err)
				cfg.Destination = ""
				continue
			}
			break
		}
	}

	if cfg.RPC.URL == "" && p.enable {
		u, err := p.ask(ctx, "Paste JSON API URL", params.RPCURL)
		if err != nil {
			return "", err
		}
		cfg.RPC.URL = u
	}

	return mnemonic, nil
}

// chooseNetwork shows the network menu. Entries may be picked by number,
// name or address prefix.
func (p *prompter) chooseNetwork(ctx context.Context) (config.NetworkType, error) {
	nets := config.Networks()
	fmt.Fprintln(p.out, "Choose Network")
	for i, n := range nets {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, n.Name)
	}
	for {
		s, err := p.ask(ctx, "Network", "1")
		if err != nil {
			return "", err
		}
		if i, err := strconv.Atoi(s); err == nil && i >= 1 && i <= len(nets) {
			return nets[i-1].Name, nil
		}
		if n, err := config.ParseNetwork(s); err == nil {
			return n, nil
		}
		fmt.Fprintf(p.out, "Pick 1-%d\n", len(nets))
	}
}
