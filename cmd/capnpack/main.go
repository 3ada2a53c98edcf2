// Command capnpack converts Cap'n Proto streams between packed and
// unpacked form, reading from stdin and writing to stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/gocapnp/capnp/internal/packed"
)

func main() {
	app := &cli.App{
		Name:  "capnpack",
		Usage: "pack or unpack a Cap'n Proto message stream",
		Commands: []*cli.Command{
			{
				Name:   "pack",
				Usage:  "read an unpacked stream from stdin, write its packed form to stdout",
				Action: runPack,
			},
			{
				Name:   "unpack",
				Usage:  "read a packed stream from stdin, write its unpacked form to stdout",
				Action: runUnpack,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "capnpack:", err)
		os.Exit(1)
	}
}

func runPack(c *cli.Context) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return errors.Wrap(err, "pack: read stdin")
	}
	out, err := packed.Pack(make([]byte, 0, len(data)), data)
	if err != nil {
		return errors.Wrap(err, "pack")
	}
	_, err = os.Stdout.Write(out)
	return errors.Wrap(err, "pack: write stdout")
}

func runUnpack(c *cli.Context) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return errors.Wrap(err, "unpack: read stdin")
	}
	out, _, err := packed.Unpack(nil, data)
	if err != nil {
		return errors.Wrap(err, "unpack")
	}
	_, err = os.Stdout.Write(out)
	return errors.Wrap(err, "unpack: write stdout")
}
