// Command gensample writes a synthetic catalog database for local runs and
// demos: earthquakes clustered around the KSMMA region plus frac stages,
// well trajectories, disposal months, and producing wells at plausible
// offsets. Output is deterministic for a given seed so runs against it are
// comparable.
//
// Usage:
//
//	go run ./cmd/gensample -db testdata/sample.db -quakes 200
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/pgcseis/wellassoc/internal/catalog"
)

// Cluster center inside the KSMMA envelope. One degree of latitude at this
// parallel is roughly 111 km.
const (
	centerLat = 56.10
	centerLon = -121.30
)

var baseDate = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "", "output database path")
	nQuakes := flag.Int("quakes", 200, "number of earthquakes to generate")
	nPads := flag.Int("pads", 4, "number of well pads")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *dbPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -db")
	}

	cat, err := catalog.Open(*dbPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	rng := rand.New(rand.NewSource(*seed))
	db := cat.DB()

	wells, err := writeActivities(db, rng, *nPads)
	if err != nil {
		return fmt.Errorf("write activities: %w", err)
	}
	if err := writeQuakes(db, rng, *nQuakes); err != nil {
		return fmt.Errorf("write quakes: %w", err)
	}

	log.Printf("wrote %d quakes, %d wells across %d pads: %s", *nQuakes, wells, *nPads, *dbPath)
	return nil
}

// jitter returns a random offset within ±scale.
func jitter(rng *rand.Rand, scale float64) float64 {
	return (rng.Float64()*2 - 1) * scale
}

// writeQuakes populates both origin tables. Most hypocenters land in the
// relocated 3-D catalog; every tenth one goes to the coarse catalog instead.
func writeQuakes(db *sql.DB, rng *rand.Rand, n int) error {
	for i := 1; i <= n; i++ {
		table := catalog.TableOrigin3D
		if i%10 == 0 {
			table = catalog.TableOrigin
		}
		// Spread origin times across the month after the frac program starts.
		originTime := baseDate.Add(time.Duration(rng.Intn(30*24)) * time.Hour)
		_, err := db.Exec(
			"INSERT INTO "+table+" (quake_id, lat, lon, depth_km, magnitude, origin_time) VALUES (?, ?, ?, ?, ?, ?)",
			i,
			centerLat+jitter(rng, 0.04),
			centerLon+jitter(rng, 0.08),
			1.5+rng.Float64()*2.5,
			0.5+rng.Float64()*2.0,
			originTime.Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeActivities populates the activity tables and returns the well count.
func writeActivities(db *sql.DB, rng *rand.Rand, nPads int) (int, error) {
	wells := 0
	stageID := int64(0)

	for pad := 1; pad <= nPads; pad++ {
		padID := fmt.Sprintf("PAD-%02d", pad)
		padLat := centerLat + jitter(rng, 0.03)
		padLon := centerLon + jitter(rng, 0.06)

		// Two stage-covered HF wells per pad, eight stages each.
		for w := 1; w <= 2; w++ {
			wellID := fmt.Sprintf("%s-HF%d", padID, w)
			formation := "Lower Middle Montney"
			if rng.Float64() < 0.3 {
				formation = "Upper Montney"
			}
			for s := 0; s < 8; s++ {
				stageID++
				started := baseDate.AddDate(0, 0, s).Add(time.Duration(rng.Intn(12)) * time.Hour)
				dateOnly := 0
				if s%4 == 3 {
					dateOnly = 1
					started = started.Truncate(24 * time.Hour)
				}
				_, err := db.Exec(
					"INSERT INTO hf_stages (stage_id, well_id, pad_id, formation, lat, lon, started_at, date_only) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
					stageID, wellID, padID, formation,
					padLat+jitter(rng, 0.004),
					padLon+jitter(rng, 0.008),
					started.Format(time.RFC3339), dateOnly,
				)
				if err != nil {
					return 0, err
				}
			}
			wells++
		}

		// One trajectory-only HF well per pad, a short lateral.
		wellID := fmt.Sprintf("%s-HFP", padID)
		expStart := baseDate.AddDate(0, 0, -10)
		expEnd := baseDate.AddDate(0, 0, -2)
		for seq := 1; seq <= 5; seq++ {
			_, err := db.Exec(
				"INSERT INTO hf_present (well_id, pad_id, formation, seq, lat, lon, expected_start, expected_end) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				wellID, padID, "", seq,
				padLat+float64(seq)*0.0015,
				padLon+float64(seq)*0.003,
				expStart.Format(time.RFC3339), expEnd.Format(time.RFC3339),
			)
			if err != nil {
				return 0, err
			}
		}
		wells++
	}

	// A couple of disposal wells reporting three months each.
	for w := 1; w <= 2; w++ {
		wellID := fmt.Sprintf("WD-%02d", w)
		for m := 0; m < 3; m++ {
			month := baseDate.AddDate(0, m-2, 0)
			_, err := db.Exec(
				"INSERT INTO wd_monthly (well_id, pad_id, lat, lon, year_month) VALUES (?, ?, ?, ?, ?)",
				wellID, "PAD-WD",
				centerLat+jitter(rng, 0.02),
				centerLon+jitter(rng, 0.04),
				month.Format(time.RFC3339),
			)
			if err != nil {
				return 0, err
			}
		}
		wells++
	}

	// Producing wells, including one filtered out by its status.
	prod := []struct {
		well, mode, ops string
		eff             time.Time
	}{
		{"PR-01", "ACT", "PROD", baseDate.AddDate(-1, 0, 0)},
		{"PR-02", "ACT", "PROD", baseDate.AddDate(0, -6, 0)},
		{"PR-03", "SUSP", "PROD", baseDate.AddDate(-1, 0, 0)},
	}
	for _, pw := range prod {
		_, err := db.Exec(
			"INSERT INTO prod_status (well_id, pad_id, lat, lon, status_eff, mode_code, ops_type) VALUES (?, ?, ?, ?, ?, ?, ?)",
			pw.well, "PAD-PR",
			centerLat+jitter(rng, 0.02),
			centerLon+jitter(rng, 0.04),
			pw.eff.Format(time.RFC3339), pw.mode, pw.ops,
		)
		if err != nil {
			return 0, err
		}
		wells++
	}

	return wells, nil
}
