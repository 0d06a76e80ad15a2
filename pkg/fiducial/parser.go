// Package fiducial reads landmark point lists and decides which landmarks
// are visible on a given slice.
package fiducial

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Point is a landmark in the volume's physical space
type Point struct {
	// ID is the first field of the landmark line, kept for display only
	ID string
	
	X, Y, Z float64
}

// Policy selects what Parse does with a line holding a malformed number
type Policy int

const (
	// PolicySkip drops the bad line, records it in ParseResult.Skipped and keeps going
	PolicySkip Policy = iota
	
	// PolicyAbort stops at the first bad line and returns its error
	PolicyAbort
)

// ParseError reports a landmark line whose coordinate field is not a number
type ParseError struct {
	Line  int
	Field int
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("landmarks line %d: field %d %q: %v", e.Line, e.Field, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseResult holds the points read from a landmark file
type ParseResult struct {
	Points []Point
	
	// Skipped lists lines dropped under PolicySkip
	Skipped []*ParseError
}

// Parse reads comma-separated landmark lines of the form "id,x,y,z[,...]".
// Empty lines and lines starting with '#' are ignored, as are lines with
// fewer than four fields.
func Parse(r io.Reader, policy Policy) (*ParseResult, error) {
	result := &ParseResult{}
	
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || line[0] == '#' {
			continue
		}
		
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			continue
		}
		
		point, perr := parsePoint(lineNo, fields)
		if perr != nil {
			if policy == PolicyAbort {
				return nil, perr
			}
			result.Skipped = append(result.Skipped, perr)
			continue
		}
		result.Points = append(result.Points, point)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading landmarks: %w", err)
	}
	
	return result, nil
}

func parsePoint(lineNo int, fields []string) (Point, *ParseError) {
	var coords [3]float64
	for i := range coords {
		text := strings.TrimSpace(fields[i+1])
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) {
				err = numErr.Err
			}
			return Point{}, &ParseError{Line: lineNo, Field: i + 1, Text: text, Err: err}
		}
		coords[i] = v
	}
	
	return Point{
		ID: strings.TrimSpace(fields[0]),
		X:  coords[0],
		Y:  coords[1],
		Z:  coords[2],
	}, nil
}

// LoadFile parses the landmark file at path
func LoadFile(path string, policy Policy) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening landmarks: %w", err)
	}
	defer file.Close()
	
	return Parse(file, policy)
}
