/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "stop metarelay",
	Long:  `stop metarelay`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strb, err := os.ReadFile(pidFile)
		if err != nil {
			fmt.Printf("Stop server failed, err: %v\n", err)
			return nil
		}
		command := exec.Command("kill", string(strb))
		if err := command.Start(); err != nil {
			return err
		}
		if err := os.Remove(pidFile); err != nil {
			return err
		}
		println("metarelay stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
