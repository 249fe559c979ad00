package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/PatchLens/go-snapshot-lens/lens"
)

func main() {
	log.SetFlags(log.LstdFlags | log.LUTC)

	reportJsonFile := flag.String("json", "snapreport.json", "File to read snapshot graph details from")
	reportChartsFile := flag.String("charts", "snapreport.png", "File to output snapshot graph overview chart image")
	flag.Parse()

	data, err := os.ReadFile(*reportJsonFile)
	if err != nil {
		log.Fatalf("%sFailed to read snapreport: %v", lens.ErrorLogPrefix, err)
	}
	var metrics lens.ReportMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		log.Fatalf("%sFailed to unmarshal snapreport: %v", lens.ErrorLogPrefix, err)
	}

	charts, err := lens.RenderReportChartsFromJson(metrics)
	if err != nil {
		log.Fatalf("%sFailed to render charts: %v", lens.ErrorLogPrefix, err)
	}
	if err = os.WriteFile(*reportChartsFile, charts, 0644); err != nil {
		log.Fatalf("%sFailed to write chart file: %v", lens.ErrorLogPrefix, err)
	}
	log.Println("Report file wrote: " + *reportChartsFile)
}
