// Package cmd implements the calwhisper command line interface.
package cmd
