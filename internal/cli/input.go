package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are seams over x/term so tests never touch a terminal
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptPassword asks for a password. On a terminal the input is not echoed;
// otherwise a single line is read from the input stream.
func (a *app) promptPassword(label string) (string, error) {
	if f, ok := a.in.(*os.File); ok && isTerminal(int(f.Fd())) {
		if _, err := fmt.Fprintf(a.errOut, "%s: ", label); err != nil {
			return "", err
		}
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := a.reader().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) reader() *bufio.Reader {
	if a.bufIn == nil {
		a.bufIn = bufio.NewReader(a.in)
	}
	return a.bufIn
}
