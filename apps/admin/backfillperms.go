package main

import (
	"context"
	"fmt"
)

// backfillPermissions re-applies the role template for every identity,
// repairing any missing or stale ledger rows.
func (cli *commandLine) backfillPermissions() error {
	count, err := cli.permSvc.AssignAll(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Permissions assigned for %d user(s)\n", count)
	return nil
}
