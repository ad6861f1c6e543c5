package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/iCorv/covid-19-data-explorer/series"
	"github.com/iCorv/covid-19-data-explorer/sources"
	"github.com/iCorv/covid-19-data-explorer/table"
)

var development = false

// Main loads the source data, sets up a periodic refresh, and starts a web
// server answering the data explorer queries as json
func main() {

	loadConfig()

	if viper.GetString("mode") == "dev" {
		development = true
	}

	if development {
		log.Printf("server: starting in development mode")
	} else {
		log.Printf("server: starting in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &server{
		client: sources.NewClient(sources.Config{
			BaseURL:  viper.GetString("sources.base_url"),
			Timeout:  viper.GetDuration("sources.timeout"),
			CacheTTL: viper.GetDuration("sources.cache_ttl"),
		}),
		designated: viper.GetString("designated_country"),
	}

	// Load our data - without it there is nothing to serve
	err := srv.refresh(context.Background())
	if err != nil {
		log.Fatalf("server: failed to load data:%s", err)
	}

	// Schedule a regular data refresh - don't bother in development
	if !development {
		srv.scheduleRefresh(viper.GetDuration("refresh_interval"))
	}

	router := srv.routes()

	// In development just serve with http on a local port
	if development {
		err := router.Run(viper.GetString("listen"))
		if err != nil {
			log.Fatal(err)
		}
	} else {
		StartTLSServer(router, viper.GetStringSlice("domains"))
	}

}

// loadConfig reads explorer.yaml if present and applies env overrides
// every setting has a workable default
func loadConfig() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("listen", ":3000")
	viper.SetDefault("designated_country", "US")
	viper.SetDefault("refresh_interval", 30*time.Minute)
	viper.SetDefault("domains", []string{})
	viper.SetDefault("sources.base_url", "")
	viper.SetDefault("sources.timeout", 30*time.Second)
	viper.SetDefault("sources.cache_ttl", time.Hour)

	viper.SetConfigName("explorer")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("covid")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("config: error reading config:%s", err)
		}
		log.Printf("config: no config file, using defaults")
	}
}

// routes sets up the json api
func (s *server) routes() *gin.Engine {
	router := gin.Default()

	router.GET("/regions", s.handleRegions)
	router.GET("/dates", s.handleDates)
	router.GET("/series/:region", s.handleSeries)
	router.GET("/snapshot/country", s.handleCountrySnapshot)
	router.GET("/snapshot/fine", s.handleFineSnapshot)
	router.GET("/totals", s.handleTotals)
	router.GET("/reload", s.handleReload)

	return router
}

// handleRegions lists the selectable regions in source order
func (s *server) handleRegions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"regions": s.current().Regions()})
}

// handleDates lists the available dates in order
func (s *server) handleDates(c *gin.Context) {
	dates := s.current().Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	c.JSON(http.StatusOK, gin.H{"dates": out})
}

// handleSeries returns the long-form chart series for one region
func (s *server) handleSeries(c *gin.Context) {
	region := c.Param("region")

	points, err := s.current().CountrySeries(region)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"region": region, "points": points})
}

// handleCountrySnapshot returns per-region values for one metric and date
func (s *server) handleCountrySnapshot(c *gin.Context) {
	metric, date, ok := snapshotParams(c)
	if !ok {
		return
	}

	snaps, err := s.current().CountrySnapshot(metric, date)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metric": metric.String(), "date": date.Format("2006-01-02"), "locations": snaps})
}

// handleFineSnapshot returns per-location values at the finest granularity
func (s *server) handleFineSnapshot(c *gin.Context) {
	metric, date, ok := snapshotParams(c)
	if !ok {
		return
	}

	snaps, err := s.current().FineSnapshot(metric, date)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metric": metric.String(), "date": date.Format("2006-01-02"), "locations": snaps})
}

// handleTotals returns the worldwide counts for the latest date
func (s *server) handleTotals(c *gin.Context) {
	c.JSON(http.StatusOK, s.current().LatestTotals())
}

// handleReload triggers an immediate data refresh
func (s *server) handleReload(c *gin.Context) {
	log.Printf("reload:%s", c.Request.URL)

	err := s.refresh(c.Request.Context())
	if err != nil {
		log.Printf("reload error:%s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

// snapshotParams reads the metric and date params shared by snapshot routes
func snapshotParams(c *gin.Context) (series.Metric, time.Time, bool) {

	metric, err := series.ParseMetric(c.DefaultQuery("metric", "confirmed"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, time.Time{}, false
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return 0, time.Time{}, false
	}

	return metric, date.UTC(), true
}

// statusFor maps pipeline errors to http statuses
// missing regions or dates are the caller's selection, everything else is ours
func statusFor(err error) int {
	if errors.Is(err, series.ErrRegionNotFound) || errors.Is(err, table.ErrDateNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
