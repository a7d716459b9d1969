package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/Giulio2002/chainkv"
	"github.com/Giulio2002/chainkv/primitives"
	"github.com/Giulio2002/chainkv/provider"
	"github.com/Giulio2002/chainkv/tables"
)

func (m *metadata) open(mode chainkv.Mode) (*chainkv.Env, error) {
	if m.datadir == "" {
		return nil, fmt.Errorf("--datadir is required")
	}
	return chainkv.Open(m.datadir, mode, tables.Schema,
		chainkv.WithBackend(m.backend),
		chainkv.WithLogger(m.log))
}

func runInit(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	env, err := m.open(chainkv.ReadWrite)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := env.CreateTables(); err != nil {
		return err
	}
	fmt.Fprintf(m.w, "initialised %s database in %s\n", m.backend, m.datadir)
	return nil
}

func runStat(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	env, err := m.open(chainkv.ReadOnly)
	if err != nil {
		return err
	}
	defer env.Close()

	stats, err := env.Stat()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(m.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tKIND\tENTRIES")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Name, s.Kind, s.Entries)
	}
	return tw.Flush()
}

// runTables only reads the schema, so it needs no database.
func runTables(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	for _, t := range tables.Schema.Tables() {
		fmt.Fprintf(m.w, "%-20s %s\n", t.Name(), t.Kind())
	}
	return nil
}

func runHeader(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	if c.NArg() != 1 {
		return fmt.Errorf("header takes one block number")
	}
	n, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid block number: %w", err)
	}

	env, err := m.open(chainkv.ReadOnly)
	if err != nil {
		return err
	}
	defer env.Close()

	var h primitives.Header
	err = env.View(func(tx *chainkv.Tx) error {
		var found bool
		h, found, err = chainkv.Get(tx, tables.Headers, n)
		if err == nil && !found {
			err = fmt.Errorf("%w: %d", provider.ErrBlockNotFound, n)
		}
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(m, h)
}

func runEnv(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	if c.NArg() != 1 {
		return fmt.Errorf("env takes one block number or hash")
	}
	id, err := primitives.ParseBlockID(c.Args().First())
	if err != nil {
		return err
	}

	env, err := m.open(chainkv.ReadOnly)
	if err != nil {
		return err
	}
	defer env.Close()

	blockEnv, cfgEnv, err := provider.New(env).ExecEnvAt(id)
	if err != nil {
		return err
	}
	return printJSON(m, struct {
		Block primitives.BlockEnv `json:"block_env"`
		Cfg   primitives.CfgEnv   `json:"cfg_env"`
	}{blockEnv, cfgEnv})
}

func runDump(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	if c.NArg() != 1 {
		return fmt.Errorf("dump takes one table name")
	}
	info, ok := tables.Schema.Lookup(c.Args().First())
	if !ok {
		return fmt.Errorf("no table %q, see the tables command", c.Args().First())
	}
	limit := c.Int("limit")
	if limit < 0 {
		return fmt.Errorf("invalid limit: %d", limit)
	}

	env, err := m.open(chainkv.ReadOnly)
	if err != nil {
		return err
	}
	defer env.Close()

	return env.View(func(tx *chainkv.Tx) error {
		cur, err := chainkv.OpenCursor(tx, chainkv.Raw(info))
		if err != nil {
			return err
		}
		w, err := cur.Walk()
		if err != nil {
			return err
		}
		count := 0
		for w.Next() {
			if limit > 0 && count == limit {
				break
			}
			fmt.Fprintf(m.w, "%s: %s\n", hex.EncodeToString(w.Key()), hex.EncodeToString(w.Value()))
			count++
		}
		return w.Err()
	})
}

func printJSON(m *metadata, v interface{}) error {
	enc := json.NewEncoder(m.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
