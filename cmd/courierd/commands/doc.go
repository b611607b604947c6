// Package commands implements the courierd command tree.
package commands
