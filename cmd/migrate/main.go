package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

func main() {
	// Lade Umgebungsvariablen aus .env-Datei
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	m := newMigrate()
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Fehler beim Schließen der Migrationsressourcen: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command := os.Args[1]; command {
	case "up":
		report(m.Up(), "Migrationen erfolgreich ausgeführt")
	case "down":
		// Letzte Migration zurückrollen
		report(m.Steps(-1), "Letzte Migration erfolgreich zurückgerollt")
	case "goto":
		version := versionArg()
		report(m.Migrate(version), fmt.Sprintf("Migration zur Version %d erfolgreich", version))
	case "force":
		// Setzt die Version nach einer abgebrochenen Migration ohne SQL auszuführen
		version := versionArg()
		if err := m.Force(int(version)); err != nil {
			log.Fatalf("Fehler beim Setzen der Version %d: %v", version, err)
		}
		log.Printf("Version auf %d gesetzt", version)
	case "status":
		printStatus(m)
	default:
		printUsage()
		os.Exit(1)
	}
}

func newMigrate() *migrate.Migrate {
	user := env.GetEnv("DB_USER", "eventpay")
	host := env.GetEnv("DB_HOST", "db")
	port := env.GetEnv("DB_PORT", "3306")
	name := env.GetEnv("DB_NAME", "eventpay_db")

	dbURL := fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true&parseTime=true",
		user, env.GetEnv("DB_PASSWORD", "eventpay"), host, port, name)
	log.Printf("Verbinde mit Datenbank: %s@%s:%s/%s", user, host, port, name)

	m, err := migrate.New("file://"+env.GetEnv("MIGRATIONS_PATH", "migrations"), dbURL)
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren der Migration: %v", err)
	}
	return m
}

func report(err error, success string) {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Println("Keine Änderungen: Datenbank ist bereits auf dem neuesten Stand")
	case err != nil:
		log.Fatalf("Fehler bei der Migration: %v", err)
	default:
		log.Println(success)
	}
}

func versionArg() uint {
	if len(os.Args) < 3 {
		log.Fatalf("Bitte geben Sie eine Versionsnummer an")
	}
	version, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil {
		log.Fatalf("Ungültige Versionsnummer: %v", err)
	}
	return uint(version)
}

func printStatus(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Println("Keine Migrationen wurden bisher ausgeführt")
		return
	}
	if err != nil {
		log.Fatalf("Fehler beim Abrufen der Migrationsversion: %v", err)
	}
	dirtyStatus := ""
	if dirty {
		dirtyStatus = " (dirty)"
	}
	log.Printf("Aktuelle Migrationsversion: %d%s", version, dirtyStatus)
}

func printUsage() {
	fmt.Println("Verwendung: go run cmd/migrate/main.go [command]")
	fmt.Println("Verfügbare Befehle:")
	fmt.Println("  up      - Führe alle ausstehenden Migrationen aus")
	fmt.Println("  down    - Rolle die letzte Migration zurück")
	fmt.Println("  goto N  - Migriere zur Version N")
	fmt.Println("  force N - Setze die Version N nach einem Fehler (dirty)")
	fmt.Println("  status  - Zeige aktuelle Migrationsversion an")
}
