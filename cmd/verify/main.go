// Command verify checks the integrity of a populated association database:
// probability distributions must sum to one at every aggregation level, and
// every linked quake must carry a classification row. With -backfill it
// rebuilds missing classification rows from the persisted links.
//
// Usage:
//
//	go run ./cmd/verify -db wellassoc.db
//	go run ./cmd/verify -db wellassoc.db -backfill
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pgcseis/wellassoc/internal/domain"
	"github.com/pgcseis/wellassoc/internal/store"
)

// phase tracks pass/fail for a verification phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dbPath := flag.String("db", "", "path to the association database")
	backfill := flag.Bool("backfill", false, "rebuild missing classification rows before checking")
	flag.Parse()

	if *dbPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dbPath, *backfill); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath string, backfill bool) int {
	ctx := context.Background()

	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open store: %v\n", err)
		return 1
	}
	defer st.Close()

	fmt.Println("=== Association Integrity Verification ===")
	fmt.Println()

	if backfill {
		n, err := st.BackfillClassified(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: backfill: %v\n", err)
			return 1
		}
		fmt.Printf("Backfilled %d classification row(s)\n\n", n)
	}

	phases := []*phase{
		verifyProbabilitySums(ctx, st),
		verifyClassifiedCoverage(ctx, st),
	}

	links, classified, err := st.CountRows(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: count rows: %v\n", err)
		return 1
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d links, %d classified\n", links, classified)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nVerification FAILED.")
	return 1
}

// verifyProbabilitySums checks that stage, well, and pad distributions each
// sum to one per quake.
func verifyProbabilitySums(ctx context.Context, st *store.Store) *phase {
	p := &phase{name: "Phase 1: Probability Sums (stage/well/pad)"}

	violations, err := st.VerifySums(ctx, domain.ProbEpsilon)
	if err != nil {
		p.errorf("verify sums: %v", err)
		return p
	}
	for _, v := range violations {
		p.errorf("quake %d: %s probabilities sum to %.12f", v.QuakeID, v.Level, v.Sum)
	}
	return p
}

// verifyClassifiedCoverage checks that every linked quake has exactly one
// classification row.
func verifyClassifiedCoverage(ctx context.Context, st *store.Store) *phase {
	p := &phase{name: "Phase 2: Classification Coverage"}

	missing, err := st.MissingClassified(ctx)
	if err != nil {
		p.errorf("find missing classified rows: %v", err)
		return p
	}
	for _, id := range missing {
		p.errorf("quake %d has links but no classification row (run with -backfill)", id)
	}
	return p
}
