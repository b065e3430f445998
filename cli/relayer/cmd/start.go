/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/everFinance/metarelay"
	"github.com/spf13/cobra"
)

const pidFile string = ".metarelay_pid.lock"

var daemon bool

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start metarelay",
	Long:  `start metarelay`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if daemon {
			if _, err := os.Stat(pidFile); err == nil {
				fmt.Println("Failed start, PID file exist.running...")
				return nil
			}

			path, err := os.Executable()
			if err != nil {
				return err
			}

			startArgs := []string{"start"}
			if cfgFile != "" {
				startArgs = append(startArgs, "--cfg", cfgFile)
			}
			command := exec.Command(path, startArgs...)

			// add log
			logFileName := fmt.Sprintf("metarelay_%d.log", time.Now().Unix())
			logFile, err := os.OpenFile(logFileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
			if err != nil {
				return err
			}

			command.Stdout = logFile
			command.Stderr = logFile

			if err := command.Start(); err != nil {
				return err
			}
			err = os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", command.Process.Pid)), 0666)
			if err != nil {
				return err
			}

			daemon = false
			os.Exit(0)
		}
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().BoolVarP(&daemon, "deamon", "d", false, "is daemon?")
}

func runServer() error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	s, err := metarelay.New(cfg)
	if err != nil {
		return err
	}
	if err = s.Run(); err != nil {
		return err
	}

	<-signals

	s.Close()
	return nil
}
