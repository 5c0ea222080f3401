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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeremyhahn/go-pkcs8/internal/password"
	"github.com/jeremyhahn/go-pkcs8/pkg/keyfactory"
	"github.com/jeremyhahn/go-pkcs8/pkg/metrics"
	"github.com/jeremyhahn/go-pkcs8/pkg/pkcs8"
	"github.com/jeremyhahn/go-pkcs8/pkg/secure"
	"github.com/spf13/cobra"
)

// outputPerms is used for every file the CLI writes; outputs hold private keys
const outputPerms = 0600

func newInspectCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Decode containers and print a summary",
		Long: `Decode each file strictly and print its version, algorithm, field
lengths and content hash. Key material is never printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := cfg.printer(cmd)
			for _, path := range args {
				c, err := cfg.decodeFile(path)
				if err != nil {
					return err
				}
				info := describeContainer(path, c)
				cfg.wipe(c)
				if err := printer.PrintContainer(info); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newNormalizeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <in> <out>",
		Short: "Re-encode a container in canonical form",
		Long: `Decode <in> and write its canonical encoding to <out>. A v2 container
without a public key is written as v1.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			version, err := cfg.normalize(args[0], args[1])
			cfg.observe(metrics.OpNormalize, start, err)
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintSuccess(
				fmt.Sprintf("Wrote %s container to %s", version, args[1]))
		},
	}
}

func (c *Config) normalize(in, out string) (pkcs8.Version, error) {
	ctr, err := c.decodeFile(in)
	if err != nil {
		return 0, err
	}
	defer c.wipe(ctr)

	der, err := c.encode(ctr)
	if err != nil {
		return 0, err
	}
	defer secure.Zero(der)

	version := pkcs8.V1
	if ctr.HasPublicKey() {
		version = pkcs8.V2
	}
	return version, writeDER(out, der)
}

func newCombineCmd(cfg *Config) *cobra.Command {
	var publicKeyFile string

	cmd := &cobra.Command{
		Use:   "combine --public <spki> <key> <out>",
		Short: "Attach a public key to a container",
		Long: `Attach the DER SubjectPublicKeyInfo in --public to the container in <key>
and write the resulting v2 encoding to <out>. The public key algorithm must
match the private key algorithm.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := cfg.combine(publicKeyFile, args[0], args[1])
			cfg.observe(metrics.OpCombine, start, err)
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintSuccess(fmt.Sprintf("Wrote v2 container to %s", args[1]))
		},
	}

	cmd.Flags().StringVar(&publicKeyFile, "public", "", "DER SubjectPublicKeyInfo file")
	_ = cmd.MarkFlagRequired("public")
	return cmd
}

func (c *Config) combine(spkiFile, keyFile, out string) error {
	spki, err := readDER(spkiFile)
	if err != nil {
		return err
	}
	key, err := readDER(keyFile)
	if err != nil {
		return err
	}
	defer secure.Zero(key)

	der, err := pkcs8.Combine(spki, key)
	if err != nil {
		c.recordDecodeError(err)
		return fmt.Errorf("%s: %w", keyFile, err)
	}
	defer secure.Zero(der)

	c.Logger.Debug("combined container", "key", keyFile, "public", spkiFile)
	return writeDER(out, der)
}

func newCompareCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two containers by canonical encoding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			equal, err := cfg.compare(args[0], args[1])
			cfg.observe(metrics.OpCompare, start, err)
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintComparison(args[0], args[1], equal)
		},
	}
}

func (c *Config) compare(pathA, pathB string) (bool, error) {
	a, err := c.decodeFile(pathA)
	if err != nil {
		return false, err
	}
	defer c.wipe(a)

	b, err := c.decodeFile(pathB)
	if err != nil {
		return false, err
	}
	defer c.wipe(b)

	return a.Equal(b), nil
}

func newHashCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>...",
		Short: "Print the content hash of containers",
		Long: `Print a 64-bit content hash of each container's canonical encoding.
Containers that compare equal have the same hash.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := cfg.printer(cmd)
			for _, path := range args {
				c, err := cfg.decodeFile(path)
				if err != nil {
					return err
				}
				hash := c.Hash()
				cfg.wipe(c)
				if err := printer.PrintHash(path, hash); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// passwordFlags are shared by decrypt and encrypt
type passwordFlags struct {
	value string
	file  string
}

func (f *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.value, "password", "", "password")
	cmd.Flags().StringVar(&f.file, "password-file", "", "read the password from the first line of this file")
	cmd.MarkFlagsMutuallyExclusive("password", "password-file")
}

func (f *passwordFlags) read() (*password.ClearPassword, error) {
	switch {
	case f.file != "":
		return password.FromFile(f.file)
	case f.value != "":
		return password.NewClearPasswordFromString(f.value)
	default:
		return nil, keyfactory.ErrPasswordRequired
	}
}

func newDecryptCmd(cfg *Config) *cobra.Command {
	var pw passwordFlags

	cmd := &cobra.Command{
		Use:   "decrypt <in> <out>",
		Short: "Decrypt an EncryptedPrivateKeyInfo into a container",
		Long: `Decrypt the password protected PKCS#8 key in <in> (PBES2 or scrypt) and
write the canonical unencrypted container to <out>.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := cfg.decrypt(&pw, args[0], args[1])
			cfg.observe(metrics.OpDecrypt, start, err)
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintSuccess(fmt.Sprintf("Wrote decrypted container to %s", args[1]))
		},
	}

	pw.register(cmd)
	return cmd
}

func (c *Config) decrypt(pw *passwordFlags, in, out string) error {
	secret, err := pw.read()
	if err != nil {
		return err
	}
	defer secret.Clear()

	data, err := readDER(in)
	if err != nil {
		return err
	}
	defer secure.Zero(data)

	var ctr *pkcs8.Container
	err = secret.Use(func(p []byte) error {
		var derr error
		ctr, derr = keyfactory.DecryptContainer(data, p)
		return derr
	})
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	defer c.wipe(ctr)

	der, err := c.encode(ctr)
	if err != nil {
		return err
	}
	defer secure.Zero(der)

	c.Logger.Debug("decrypted container", "in", in, "algorithm", ctr.Algorithm())
	return writeDER(out, der)
}

func newEncryptCmd(cfg *Config) *cobra.Command {
	var pw passwordFlags

	cmd := &cobra.Command{
		Use:   "encrypt <in> <out>",
		Short: "Encrypt a container into an EncryptedPrivateKeyInfo",
		Long: `Encrypt the container in <in> with PBES2 (PBKDF2-SHA256, AES-256-CBC)
and write the EncryptedPrivateKeyInfo to <out>. Only algorithms with a
typed key parser can be encrypted; the public key is not carried over.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := cfg.encrypt(&pw, args[0], args[1])
			cfg.observe(metrics.OpEncrypt, start, err)
			if err != nil {
				return err
			}
			return cfg.printer(cmd).PrintSuccess(fmt.Sprintf("Wrote encrypted key to %s", args[1]))
		},
	}

	pw.register(cmd)
	return cmd
}

func (c *Config) encrypt(pw *passwordFlags, in, out string) error {
	secret, err := pw.read()
	if err != nil {
		return err
	}
	defer secret.Clear()

	ctr, err := c.decodeFile(in)
	if err != nil {
		return err
	}
	defer c.wipe(ctr)

	var der []byte
	err = secret.Use(func(p []byte) error {
		var eerr error
		der, eerr = keyfactory.EncryptContainer(ctr, p)
		return eerr
	})
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	defer secure.Zero(der)

	return writeDER(out, der)
}

// decodeFile reads and strictly decodes one container, recording the
// decode in the metrics
func (c *Config) decodeFile(path string) (*pkcs8.Container, error) {
	data, err := readDER(path)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(data)

	start := time.Now()
	ctr, err := pkcs8.Decode(data)
	c.observe(metrics.OpDecode, start, err)
	if err != nil {
		c.recordDecodeError(err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Logger.Debug("decoded container",
		"file", path,
		"algorithm", ctr.Algorithm(),
		"version", ctr.Version().String())
	return ctr, nil
}

func (c *Config) encode(ctr *pkcs8.Container) ([]byte, error) {
	start := time.Now()
	der, err := ctr.Encode()
	c.observe(metrics.OpEncode, start, err)
	return der, err
}

func (c *Config) observe(op string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.RecordOperation(op, status, time.Since(start).Seconds())
}

func (c *Config) recordDecodeError(err error) {
	var decErr *pkcs8.DecodeError
	if errors.As(err, &decErr) {
		metrics.RecordDecodeError(decErr.Kind.String())
	}
}

func (c *Config) wipe(ctr *pkcs8.Container) {
	ctr.Wipe()
	metrics.RecordWipe()
}

func readDER(path string) ([]byte, error) {
	// #nosec G304 - input path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeDER(path string, der []byte) error {
	if err := os.WriteFile(path, der, outputPerms); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
