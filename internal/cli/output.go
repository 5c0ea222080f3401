// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeremyhahn/go-pkcs8/internal/config"
	"github.com/jeremyhahn/go-pkcs8/pkg/keyfactory"
	"github.com/jeremyhahn/go-pkcs8/pkg/pkcs8"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// ContainerInfo is the non-sensitive summary of a container
type ContainerInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	EncodedVersion string `json:"encoded_version"`
	Algorithm      string `json:"algorithm"`
	OID            string `json:"oid"`
	Parameters     bool   `json:"parameters"`
	KeyLength      int    `json:"key_length"`
	Attributes     int    `json:"attributes_length"`
	PublicKey      bool   `json:"public_key"`
	PublicKeyLen   int    `json:"public_key_length,omitempty"`
	Typed          bool   `json:"typed"`
	Hash           string `json:"hash"`
}

// describeContainer summarizes c without exposing key material
func describeContainer(name string, c *pkcs8.Container) ContainerInfo {
	encoded := pkcs8.V1
	if c.HasPublicKey() {
		encoded = pkcs8.V2
	}
	_, typed := keyfactory.Default().Lookup(c.Algorithm())
	alg := c.AlgorithmID()
	km := c.KeyMaterial()
	defer secure.Zero(km)
	return ContainerInfo{
		Name:           name,
		Version:        c.Version().String(),
		EncodedVersion: encoded.String(),
		Algorithm:      c.Algorithm(),
		OID:            alg.OID.String(),
		Parameters:     alg.Parameters != nil,
		KeyLength:      len(km),
		Attributes:     len(c.Attributes()),
		PublicKey:      c.HasPublicKey(),
		PublicKeyLen:   len(c.PublicKeyMaterial()),
		Typed:          typed,
		Hash:           formatHash(c.Hash()),
	}
}

func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// PrintContainer prints a container summary
func (p *Printer) PrintContainer(info ContainerInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatTable, OutputFormatText:
		if info.Name != "" {
			fmt.Fprintf(p.writer, "Container: %s\n", info.Name)
		}
		version := info.Version
		if info.Version != info.EncodedVersion {
			version = fmt.Sprintf("%s (encodes as %s)", info.Version, info.EncodedVersion)
		}
		fmt.Fprintf(p.writer, "  Format:     PKCS#8\n")
		fmt.Fprintf(p.writer, "  Version:    %s\n", version)
		fmt.Fprintf(p.writer, "  Algorithm:  %s\n", info.Algorithm)
		fmt.Fprintf(p.writer, "  OID:        %s\n", info.OID)
		fmt.Fprintf(p.writer, "  Parameters: %t\n", info.Parameters)
		fmt.Fprintf(p.writer, "  Key:        %d bytes\n", info.KeyLength)
		if info.Attributes > 0 {
			fmt.Fprintf(p.writer, "  Attributes: %d bytes\n", info.Attributes)
		}
		if info.PublicKey {
			fmt.Fprintf(p.writer, "  Public Key: %d bytes\n", info.PublicKeyLen)
		} else {
			fmt.Fprintf(p.writer, "  Public Key: none\n")
		}
		fmt.Fprintf(p.writer, "  Typed:      %t\n", info.Typed)
		fmt.Fprintf(p.writer, "  Hash:       %s\n", info.Hash)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyList prints the IDs held by the keystore
func (p *Printer) PrintKeyList(ids []string) error {
	switch p.format {
	case OutputFormatJSON:
		if ids == nil {
			ids = []string{}
		}
		return p.printJSON(map[string]interface{}{
			"keys": ids,
		})
	case OutputFormatTable:
		if len(ids) == 0 {
			fmt.Fprintln(p.writer, "No keys found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-5s %s\n", "#", "ID")
		fmt.Fprintln(p.writer, strings.Repeat("-", 42))
		for i, id := range ids {
			fmt.Fprintf(p.writer, "%-5d %s\n", i+1, id)
		}
		return nil
	case OutputFormatText:
		if len(ids) == 0 {
			fmt.Fprintln(p.writer, "No keys found")
			return nil
		}
		fmt.Fprintln(p.writer, "Keys:")
		for _, id := range ids {
			fmt.Fprintf(p.writer, "  - %s\n", id)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintComparison prints the result of comparing two containers
func (p *Printer) PrintComparison(a, b string, equal bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"a":     a,
			"b":     b,
			"equal": equal,
		})
	case OutputFormatTable, OutputFormatText:
		if equal {
			fmt.Fprintf(p.writer, "%s and %s are equal\n", a, b)
		} else {
			fmt.Fprintf(p.writer, "%s and %s differ\n", a, b)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintHash prints the content hash of a container
func (p *Printer) PrintHash(name string, hash uint64) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"name": name,
			"hash": formatHash(hash),
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "%s  %s\n", formatHash(hash), name)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintConfig prints the effective configuration
func (p *Printer) PrintConfig(cfg *config.Config) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(cfg)
	case OutputFormatTable, OutputFormatText:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = p.writer.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		out := map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
		var decErr *pkcs8.DecodeError
		if errors.As(err, &decErr) {
			out["kind"] = decErr.Kind.String()
		}
		return p.printJSON(out)
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		// fall back to text so the error is never lost
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// printJSON prints data as formatted JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
