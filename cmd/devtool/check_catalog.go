package main

import (
	"fmt"

	"github.com/osse101/realmkeeper/internal/catalog"
	"github.com/osse101/realmkeeper/internal/config"
)

type CheckCatalogCommand struct{}

func (c *CheckCatalogCommand) Name() string {
	return "check-catalog"
}

func (c *CheckCatalogCommand) Description() string {
	return "Validate the item catalog against its schema [items.json] [schema.json]"
}

func (c *CheckCatalogCommand) Run(args []string) error {
	path := getEnv("ITEMS_CONFIG_PATH", config.ConfigPathItems)
	schema := getEnv("ITEMS_SCHEMA_PATH", config.ConfigPathItemsSchema)
	if len(args) > 0 {
		path = args[0]
	}
	if len(args) > 1 {
		schema = args[1]
	}

	PrintHeader("Checking item catalog")
	cat, err := catalog.LoadCatalog(path, schema)
	if err != nil {
		return err
	}

	for _, t := range cat.All() {
		fmt.Printf("  %-16s max stack %-5d %s\n", t.ID, t.MaxStack, t.Name)
	}
	PrintSuccess("%d item types valid", cat.Len())
	return nil
}
