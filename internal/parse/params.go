package parse

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fourbynine/fourinarow/internal/heuristic"
)

// ParseBADSParameterLine decodes a comma-separated optimizer vector of
// exactly ten floats.
func ParseBADSParameterLine(line string) ([]float64, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", heuristic.ErrInvalidParameterVector, f, err)
		}
		out = append(out, v)
	}
	if len(out) != heuristic.BADSParameterCount {
		return nil, fmt.Errorf("%w: parameter file must contain %d parameters, got %d",
			heuristic.ErrInvalidParameterVector, heuristic.BADSParameterCount, len(out))
	}
	return out, nil
}

// ParseBADSParameterFile reads the first non-comment line of a parameter
// file and decodes it to the 58-entry model vector. Lines starting with
// '#' are comments.
func ParseBADSParameterFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		bads, err := ParseBADSParameterLine(line)
		if err != nil {
			return nil, err
		}
		return heuristic.BadsToModelParameters(bads)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: no parameter line found in %s", heuristic.ErrInvalidParameterVector, path)
}
