package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks a yes/no question. Only "y" (any case, surrounding space
// ignored) proceeds; anything else, including EOF, declines.
func Confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	answer, err := Ask(r, w, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	return strings.ToLower(answer) == "y", nil
}

// Ask prints label and returns one trimmed line. EOF with no input yields "".
func Ask(r io.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprint(w, label); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
