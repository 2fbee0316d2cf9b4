package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/features"
	"github.com/dd0wney/nodesel-dagger/pkg/scoring"
)

type scoreCmdConfig struct {
	*rootCmdConfig
	address   string
	transport string
	policy    int
	timeout   time.Duration
}

func scoreCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &scoreCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("score FEATURE x%d", features.Size),
		Short: "Send one scoring request to a running server",
		Args:  cobra.ExactArgs(features.Size),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.applyDefaults(cmd)
			feats, err := parseFeatures(args)
			if err != nil {
				return err
			}
			factory, err := scoring.NewSocketFactory(config.transport)
			if err != nil {
				return err
			}
			client, err := scoring.Dial(factory, config.address, config.timeout)
			if err != nil {
				return err
			}
			defer client.Close()

			score, err := client.Score(feats, config.policy)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(score, 'g', -1, 64))
			return nil
		},
	}
	cmd.Flags().StringVarP(&config.address, "address", "a", "", "server address (default from config)")
	cmd.Flags().StringVar(&config.transport, "transport", "", "socket transport, nng or zmq (default from config)")
	cmd.Flags().IntVarP(&config.policy, "policy", "p", 0, "policy iteration to score with")
	cmd.Flags().DurationVar(&config.timeout, "timeout", 0, "request timeout (default from config)")
	return cmd
}

func (c *scoreCmdConfig) applyDefaults(cmd *cobra.Command) {
	s := c.cfg.Scoring
	if c.address == "" {
		c.address = s.Address
	}
	if c.transport == "" {
		c.transport = s.Transport
	}
	if !cmd.Flags().Changed("timeout") {
		c.timeout = s.Timeout
	}
}

func parseFeatures(args []string) ([]float64, error) {
	feats := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		feats[i] = v
	}
	return feats, nil
}
