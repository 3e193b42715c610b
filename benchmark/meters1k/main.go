package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/db"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/store"
)

var maxMeters = flag.Int("meters", 1000, "number of sub meters")
var hours = flag.Int("hours", 24, "hourly readings per sub meter")
var groupSize = flag.Int("group", 10, "sub meters summed by each virtual meter")
var workers = flag.Int("workers", 4, "engine workers")

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

func main() {
	flag.Parse()
	common.SetTestLoggerNop()

	dbInstance := db.GetInstance(db.UseMemorySqliteDialector())

	var startTime time.Time
	var usedTime time.Duration

	startTime = time.Now()
	org := seed(dbInstance)
	usedTime = time.Since(startTime)

	fmt.Printf(
		"seeded %v sub meters with %v readings each: used time=%v seconds\n",
		*maxMeters, *hours, usedTime.Seconds(),
	)

	eng, err := engine.New(store.NewReadings(dbInstance), store.NewCatalog(dbInstance), engine.Options{Workers: *workers})
	if err != nil {
		log.Fatal("Failed to create engine:", err)
	}

	for _, dryRun := range []bool{true, false, false} {
		startTime = time.Now()
		r, err := eng.Run(context.Background(), engine.RunOptions{
			Scope:  engine.Scope{OrgName: org},
			DryRun: dryRun,
		})
		usedTime = time.Since(startTime)
		if err != nil {
			log.Fatal("Run failed:", err)
		}

		t := r.Totals()
		fmt.Printf(
			"run dry_run=%v workers=%v: staged=%v written=%v updated=%v used time=%v seconds, throughput=%v points/second\n",
			dryRun, *workers, t.Staged, t.Written, t.Updated, usedTime.Seconds(), float64(t.Staged)/usedTime.Seconds(),
		)
	}
}

func seed(d *db.DB) string {
	orgRow := models.Organization{Name: "bench-" + uuid.NewString()}
	mustCreate(d, &orgRow)
	building := models.Building{OrgID: orgRow.ID, Name: "bench"}
	mustCreate(d, &building)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var group []string
	for i := range *maxMeters {
		m := models.Meter{
			OrgID:      orgRow.ID,
			BuildingID: building.ID,
			Identifier: fmt.Sprintf("SUB_%04d", i),
			Type:       models.MeterTypeSub,
			Unit:       "kWh",
			IsActive:   true,
		}
		mustCreate(d, &m)

		readings := make([]models.Reading, 0, *hours)
		total := decimal.NewFromInt(rnd.Int63n(10000))
		for h := range *hours {
			total = total.Add(decimal.NewFromFloat(rnd.Float64() * 5).Round(3))
			readings = append(readings, models.Reading{
				MeterID:        m.ID,
				Ts:             start.Add(time.Duration(h) * time.Hour),
				Kind:           models.ReadingKindAccumulated,
				Value:          total,
				Unit:           "kWh",
				Classification: models.ClassificationActual,
				Source:         models.SourceCSV,
			})
		}
		if err := d.Conn.CreateInBatches(readings, 500).Error; err != nil {
			log.Fatal("Failed to seed readings:", err)
		}

		group = append(group, m.Identifier)
		if len(group) == *groupSize || i == *maxMeters-1 {
			v := models.Meter{
				OrgID:      orgRow.ID,
				BuildingID: building.ID,
				Identifier: fmt.Sprintf("FLOOR_%04d", i / *groupSize),
				Type:       models.MeterTypeVirtual,
				Unit:       "kWh",
				IsActive:   true,
			}
			mustCreate(d, &v)
			mustCreate(d, &models.Formula{
				TargetMeterID: v.ID,
				Expression:    strings.Join(group, " + "),
				Start:         start,
			})
			group = group[:0]
		}

		fmt.Printf("\rseeded meter %v", i)
	}
	fmt.Println()
	return orgRow.Name
}

func mustCreate(d *db.DB, value any) {
	if err := d.Conn.Create(value).Error; err != nil {
		log.Fatal("Failed to seed:", err)
	}
}
