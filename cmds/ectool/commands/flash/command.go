// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flash holds the EC flash and software sync verbs.
package flash

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/cbfs"
	"github.com/linuxboot/chromeec/pkg/ec"
)

var (
	_ commands.Command = (*Info)(nil)
	_ commands.Command = (*Read)(nil)
	_ commands.Command = (*Hash)(nil)
	_ commands.Command = (*Update)(nil)
)

func size(n uint32) string {
	return fmt.Sprintf("%#x (%s)", n, humanize.IBytes(uint64(n)))
}

// Info shows the flash geometry and regions.
type Info struct{}

// ShortDescription explains what this command does in one line
func (cmd *Info) ShortDescription() string {
	return "prints EC flash geometry, regions and protection"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Info) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Info) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	fi, err := ch.FlashInfo()
	if err != nil {
		return fmt.Errorf("unable to get flash info: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(commands.Stdout)
	t.SetTitle("EC flash")
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRow(table.Row{"Size", size(fi.FlashSize)})
	t.AppendRow(table.Row{"Write block", size(fi.WriteBlockSize)})
	t.AppendRow(table.Row{"Erase block", size(fi.EraseBlockSize)})
	t.AppendRow(table.Row{"Protect block", size(fi.ProtectBlockSize)})
	if fi.WriteIdealSize != 0 {
		t.AppendRow(table.Row{"Ideal write", size(fi.WriteIdealSize)})
	}
	if n, err := ch.WriteBurstSize(); err == nil {
		t.AppendRow(table.Row{"Write burst", size(uint32(n))})
	}
	if p, err := ch.FlashProtect(0, 0); err == nil {
		t.AppendRow(table.Row{"Protect flags", fmt.Sprintf("%#x (valid %#x, writable %#x)", p.Flags, p.ValidFlags, p.WritableFlags)})
	}
	t.Render()

	r := table.NewWriter()
	r.SetOutputMirror(commands.Stdout)
	r.SetTitle("Regions")
	r.AppendHeader(table.Row{"Region", "Offset", "Size"})
	for _, reg := range []struct {
		name string
		id   ec.FlashRegionID
	}{
		{"RO", ec.FlashRegionRO},
		{"RW", ec.FlashRegionRW},
		{"WP RO", ec.FlashRegionWPRO},
	} {
		fr, err := ch.FlashRegionInfo(reg.id)
		if err != nil {
			r.AppendRow(table.Row{reg.name, "-", err})
			continue
		}
		r.AppendRow(table.Row{reg.name, fmt.Sprintf("%#x", fr.Offset), size(fr.Size)})
	}
	r.Render()
	return nil
}

// Read dumps EC flash to a file.
type Read struct {
	Offset string `long:"offset" default:"0" description:"first byte to read"`
	Size   string `long:"size" required:"true" description:"number of bytes to read"`
	Output string `short:"o" long:"output" required:"true" description:"file to write"`
}

// ShortDescription explains what this command does in one line
func (cmd *Read) ShortDescription() string {
	return "reads EC flash into a file"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Read) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Read) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	off, err := commands.ParseUint(cmd.Offset, 32)
	if err != nil {
		return err
	}
	n, err := commands.ParseUint(cmd.Size, 32)
	if err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	b, err := ch.FlashRead(uint32(off), uint32(n))
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.Output, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(commands.Stdout, "read %s at %#x\n", humanize.IBytes(n), off)
	return nil
}

// Hash drives the EC hash engine.
type Hash struct {
	Recalc bool   `long:"recalc" description:"wait for a hash of the RW image, recomputing it if needed"`
	Abort  bool   `long:"abort" description:"abort the hash in progress"`
	Start  string `long:"start" description:"start hashing OFFSET:SIZE"`
}

// ShortDescription explains what this command does in one line
func (cmd *Hash) ShortDescription() string {
	return "gets, starts or aborts the EC vboot hash"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Hash) LongDescription() string {
	return ""
}

func printHash(h *ec.VbootHash) {
	fmt.Fprintf(commands.Stdout, "status:  %v\n", h.Status)
	fmt.Fprintf(commands.Stdout, "type:    %d\n", h.HashType)
	fmt.Fprintf(commands.Stdout, "offset:  %#x\n", h.Offset)
	fmt.Fprintf(commands.Stdout, "size:    %#x\n", h.Size)
	fmt.Fprintf(commands.Stdout, "hash:    %x\n", h.Sum())
}

// Execute runs the verb.
func (cmd *Hash) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	var h *ec.VbootHash
	switch {
	case cmd.Abort:
		return ch.AbortHash()
	case cmd.Start != "":
		var off, n uint32
		if _, err := fmt.Sscanf(cmd.Start, "%v:%v", &off, &n); err != nil {
			return commands.ErrArgs{Err: fmt.Errorf("--start %q: %w", cmd.Start, err)}
		}
		h, err = ch.StartHash(off, n)
	case cmd.Recalc:
		h, err = ch.ReadHash()
	default:
		h, err = ch.GetHash()
	}
	if err != nil {
		return err
	}
	printHash(h)
	return nil
}

type fileStore map[string][]byte

func (s fileStore) Lookup(name string) ([]byte, error) {
	b, ok := s[name]
	if !ok {
		return nil, &fs.PathError{Op: "lookup", Path: name, Err: fs.ErrNotExist}
	}
	return b, nil
}

// Update runs EC RW software sync.
type Update struct {
	Image  string `short:"f" long:"image" description:"coreboot image whose CBFS holds the EC RW image and hash"`
	RW     string `long:"rw" description:"raw EC RW image; its hash is computed"`
	Name   string `long:"name" default:"ecrw" description:"CBFS name of the EC RW image"`
	Hash   string `long:"hash" default:"ecrw.hash" description:"CBFS name of the EC RW hash"`
	Resume bool   `long:"resume" description:"behave as on resume from S3"`
}

// ShortDescription explains what this command does in one line
func (cmd *Update) ShortDescription() string {
	return "brings the EC RW image up to date"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Update) LongDescription() string {
	return `The EC RW hash is compared with the expected one. If they differ and
the EC runs RO, RW is erased, rewritten and verified. If the EC runs RW
it is rebooted into RO and update must be run again.`
}

func (cmd *Update) store() (ec.FileStore, error) {
	switch {
	case cmd.Image != "" && cmd.RW != "":
		return nil, commands.ErrArgs{Err: errors.New("--image and --rw are exclusive")}
	case cmd.Image != "":
		img, err := cbfs.Open(cmd.Image)
		if err != nil {
			return nil, fmt.Errorf("unable to open the firmware image file '%s': %w", cmd.Image, err)
		}
		return img, nil
	case cmd.RW != "":
		b, err := os.ReadFile(cmd.RW)
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(b)
		return fileStore{cmd.Name: b, cmd.Hash: sum[:]}, nil
	}
	return nil, commands.ErrArgs{Err: errors.New("need --image or --rw")}
}

// Execute runs the verb.
func (cmd *Update) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	store, err := cmd.store()
	if err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	out, err := ch.UpdateRW(store, ec.UpdateOptions{
		Resume:    cmd.Resume,
		ImageName: cmd.Name,
		HashName:  cmd.Hash,
	})
	fmt.Fprintf(commands.Stdout, "EC RW: %v\n", out)
	if errors.Is(err, ec.ErrRebootToRO) {
		fmt.Fprintln(commands.Stdout, "EC rebooted to RO, run update again")
		return nil
	}
	return err
}
