package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/d21d3q/wmbusc1/internal/keystore"
	"github.com/d21d3q/wmbusc1/internal/options"
	"github.com/d21d3q/wmbusc1/internal/output"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage meter keys in the bbolt key store",
}

func init() {
	keysCmd.AddCommand(
		&cobra.Command{
			Use:   "set <meter-id> <aes-key-hex>",
			Short: "Store the AES key of a meter",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				km := options.KeyMaterial{AES: args[1]}
				if _, err := km.Key(); err != nil {
					return err
				}
				return withStore(func(s *keystore.Bolt) error {
					return s.Put(args[0], km)
				})
			},
		},
		&cobra.Command{
			Use:   "get <meter-id>",
			Short: "Print the AES key of a meter",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(s *keystore.Bolt) error {
					km, err := s.Get(args[0])
					if err != nil {
						return err
					}
					fmt.Println(km.AES)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all stored keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(s *keystore.Bolt) error {
					all, err := s.List()
					if err != nil {
						return err
					}
					ids := make([]string, 0, len(all))
					for id := range all {
						ids = append(ids, id)
					}
					sort.Strings(ids)
					rows := make([]map[string]string, 0, len(ids))
					for _, id := range ids {
						rows = append(rows, map[string]string{"meter_id": id, "aes": all[id].AES})
					}
					enc, err := output.NewEncoder(os.Stdout, cfg.Output.Format)
					if err != nil {
						return err
					}
					return enc.Encode(rows)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <meter-id>",
			Short: "Remove the key of a meter",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(s *keystore.Bolt) error {
					return s.Delete(args[0])
				})
			},
		},
	)
}

func withStore(fn func(*keystore.Bolt) error) error {
	if cfg.Keys.DB == "" {
		return errors.New("no key store configured: set keys.db or pass --key-db")
	}
	store, err := keystore.OpenBolt(cfg.Keys.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
