package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxeld/internal/core/data"
	"voxeld/internal/vitals"
)

var vitalsCmd = &cobra.Command{
	Use:   "vitals",
	Short: "Player vitals management tools",
}

var vitalsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Resets a player's stored vitals to full health and hunger",
	Run:   VitalsResetCommand,
}

func VitalsResetCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	username, _ := popArg(args, "Username")

	record, err := data.FindVitals(db, username)
	if err != nil {
		fmt.Println("error looking up vitals:", err)
		return
	} else if record == nil {
		fmt.Printf("no stored vitals for '%s'\n", username)
		return
	}

	record.Health = vitals.DefaultMaxHealth
	record.MaxHealth = vitals.DefaultMaxHealth
	record.Hunger = vitals.DefaultMaxHunger
	record.MaxHunger = vitals.DefaultMaxHunger
	record.Saturation = vitals.StartingSaturation

	if err := data.UpsertVitals(db, record); err != nil {
		fmt.Println("error resetting vitals:", err)
		return
	}
	fmt.Printf("reset vitals for '%s' (deaths kept: %d)\n", username, record.DeathCount)
}
