// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ecimage packs an EC RW image and its hash into a coreboot style image
// for EC software sync, and inspects such images.
//
// Synopsis:
//
//	ecimage [-d] [-o OUT] [-s SIZE] [-c none|lz4|lzma] build EC_RW_BIN
//	ecimage list IMAGE
//	ecimage verify IMAGE
//	ecimage [-o OUT] extract IMAGE NAME
package main

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	flag "github.com/spf13/pflag"

	"github.com/linuxboot/chromeec/pkg/cbfs"
	"github.com/linuxboot/chromeec/pkg/compression"
	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/fmap"
)

var (
	debug    = flag.BoolP("debug", "d", false, "enable debug prints")
	out      = flag.StringP("output", "o", "", "output file")
	size     = flag.Uint32P("size", "s", 0x100000, "image size for build")
	compress = flag.StringP("compress", "c", "lz4", "compression of the EC RW image: none, lz4 or lzma")
	name     = flag.String("name", ec.DefaultImageName, "CBFS name of the EC RW image")
	hashName = flag.String("hash", ec.DefaultHashName, "CBFS name of the EC RW hash")
)

var algorithms = map[string]compression.Algorithm{
	"none": compression.None,
	"lz4":  compression.LZ4,
	"lzma": compression.LZMA,
}

// build lays out an image holding rw and its SHA-256.
func build(rw []byte, size uint32, comp compression.Algorithm) ([]byte, error) {
	b, err := cbfs.NewBuilder(size)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(rw)
	b.Add(*name, cbfs.TypeRaw, rw, comp)
	b.Add(*hashName, cbfs.TypeRaw, sum[:], compression.None)
	return b.Bytes()
}

// verify checks that the stored hash matches the stored image.
func verify(w io.Writer, i *cbfs.Image) error {
	rw, err := i.Lookup(*name)
	if err != nil {
		return err
	}
	want, err := i.Lookup(*hashName)
	if err != nil {
		return err
	}
	got := sha256.Sum256(rw)
	fmt.Fprintf(w, "%s: %s, sha256 %x\n", *name, humanize.IBytes(uint64(len(rw))), got)
	if !bytes.Equal(got[:], want) {
		return fmt.Errorf("%s holds %x: %w", *hashName, want, ec.ErrHashMismatch)
	}
	fmt.Fprintf(w, "%s: matches\n", *hashName)
	return nil
}

// list prints the FMAP areas and the CBFS files.
func list(w io.Writer, i *cbfs.Image) {
	fmt.Fprintf(w, "FMAP %q at %#x\n", i.FMAP.Name.String(), i.FMAPMetadata.Start)
	for _, a := range i.FMAP.Areas {
		fmt.Fprintf(w, "  %-16s %#08x %10s %s\n", a.Name.String(), a.Offset, humanize.IBytes(uint64(a.Size)), fmap.FlagNames(a.Flags))
	}
	fmt.Fprintf(w, "%s", i.String())
}

var errUsage = errors.New("usage: ecimage build EC_RW_BIN | list IMAGE | verify IMAGE | extract IMAGE NAME")

func run(stdout io.Writer, args []string) error {
	if len(args) < 2 {
		return errUsage
	}

	switch args[0] {
	case "build":
		comp, ok := algorithms[*compress]
		if !ok {
			return fmt.Errorf("unknown compression %q: %w", *compress, errUsage)
		}
		if *out == "" {
			return fmt.Errorf("build needs -o: %w", errUsage)
		}
		rw, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		img, err := build(rw, *size, comp)
		if err != nil {
			return err
		}
		return os.WriteFile(*out, img, 0o644)
	case "list", "verify", "extract":
	default:
		return errUsage
	}

	i, err := cbfs.Open(args[1])
	if err != nil {
		return err
	}
	switch args[0] {
	case "list":
		list(stdout, i)
		return nil
	case "verify":
		return verify(stdout, i)
	}
	if len(args) != 3 || *out == "" {
		return fmt.Errorf("extract needs a file name and -o: %w", errUsage)
	}
	b, err := i.Lookup(args[2])
	if err != nil {
		return err
	}
	return os.WriteFile(*out, b, 0o644)
}

func main() {
	flag.Parse()

	if *debug {
		cbfs.Debug = log.Printf
	}

	if err := run(os.Stdout, flag.Args()); err != nil {
		log.Fatal(err)
	}
}
