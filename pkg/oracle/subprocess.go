package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/pkg/alignment"
)

// writeTempJSON writes payload to a temp file and returns its path along
// with a cleanup function that removes it.
func writeTempJSON(payload []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "isoalign-alignment-*.json")
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp alignment file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		os.Remove(f.Name())
		return "", func() {}, fmt.Errorf("write temp alignment file: %w", err)
	}

	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// ErrOracleFailure is returned when the external decision procedure exits
// with a status other than the two documented outcomes: 0 = iso,
// 256 = not-iso, anything else = failure (segfault).
var ErrOracleFailure = errors.New("oracle: external decision procedure failed")

// SubprocessOracle invokes an external isotactic-decision binary,
// preserving the historical command-line calling convention. The
// in-process Oracle is preferred; this exists for interoperating with an
// existing compiled decision procedure.
type SubprocessOracle struct {
	// Path is the external binary. It is invoked as:
	//   Path m1.dot m2.dot alignment.json
	Path string
}

type jsonAlignmentPair struct {
	LHS []string `json:"lhs"`
	RHS []string `json:"rhs"`
}

// IsIsotactic implements Oracle by serializing alm to the
// {"alignment":[...]} shape the external procedure expects, the same
// shape Graph.ToJSON produces, and passing it as a temp-file argument,
// then interpreting the process exit code.
func (s *SubprocessOracle) IsIsotactic(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
	pairs := make([]jsonAlignmentPair, 0, len(alm))
	for _, p := range alm {
		pairs = append(pairs, jsonAlignmentPair{LHS: p.Left, RHS: p.Right})
	}

	payload, err := json.Marshal(struct {
		Alignment []jsonAlignmentPair `json:"alignment"`
	}{Alignment: pairs})
	if err != nil {
		return false, fmt.Errorf("oracle.SubprocessOracle: marshal alignment: %w", err)
	}

	alignmentPath, cleanup, err := writeTempJSON(payload)
	if err != nil {
		return false, fmt.Errorf("oracle.SubprocessOracle: %w", err)
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, s.Path, m1.Path, m2.Path, alignmentPath)
	err = cmd.Run()

	// The documented historical contract is 0 = iso, 256 = not-iso,
	// anything else = failure. Those are raw wait statuses as reported by
	// system(), where 256 is a normal exit with code 1. So exit code 0 is
	// read as iso, exit code 1 as not-iso, and every other outcome
	// (another exit code, a signal, a failure to start) as a failure.
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		return false, nil
	case errors.As(err, &exitErr):
		return false, fmt.Errorf("oracle.SubprocessOracle: exit code %d: %w", exitErr.ExitCode(), ErrOracleFailure)
	default:
		return false, fmt.Errorf("oracle.SubprocessOracle: %w: %v", ErrOracleFailure, err)
	}
}
