// Command simulator fills a fleet maintenance API with demo data and keeps
// it moving: it registers vehicles with maintenance schedules and then
// periodically advances every odometer so mileage-based statuses change.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const vinAlphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

// vehicleModels maps a vehicle type to the models the simulator draws from.
var vehicleModels = map[string][]string{
	"car":   {"Toyota Corolla", "Skoda Octavia", "VW Golf", "Hyundai i30"},
	"van":   {"Ford Transit", "Mercedes Sprinter", "Renault Master", "Fiat Ducato"},
	"truck": {"Volvo FH", "Scania R450", "MAN TGX", "DAF XF"},
}

var vehicleTypes = []string{"car", "van", "truck"}

// Vehicle is the request body for creating or updating a vehicle.
type Vehicle struct {
	VehicleType    string `json:"vehicle_type"`
	ChassisNumber  string `json:"chassis_number"`
	Model          string `json:"model"`
	Year           int    `json:"year"`
	CurrentMileage int64  `json:"current_mileage"`
}

// Maintenance is the request body for a maintenance schedule.
type Maintenance struct {
	VehicleID        string `json:"vehicle_id"`
	MaintenanceType  string `json:"maintenance_type"`
	LastDate         string `json:"last_date,omitempty"`
	NextDate         string `json:"next_date,omitempty"`
	LastMileage      *int64 `json:"last_mileage,omitempty"`
	NextMileage      *int64 `json:"next_mileage,omitempty"`
	NotificationDays int    `json:"notification_days,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// VehicleState is the simulator's view of one vehicle.
type VehicleState struct {
	ID       string
	Vehicle  Vehicle
	SpeedKmh float64
}

type options struct {
	apiURL       string
	token        string
	username     string
	password     string
	fleetSize    int
	interval     time.Duration
	hoursPerTick float64
}

// Client talks to the fleet maintenance API.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

func NewClient(apiURL, token string) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// do sends body as JSON and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	creds := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("login response carried no token")
	}
	c.token = resp.Token
	return nil
}

func (c *Client) CreateVehicle(ctx context.Context, v Vehicle) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/vehicles", v, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("invalid vehicle ID in response")
	}
	return created.ID, nil
}

func (c *Client) UpdateVehicle(ctx context.Context, id string, v Vehicle) error {
	return c.do(ctx, http.MethodPut, "/vehicles/"+id, v, nil)
}

func (c *Client) CreateMaintenance(ctx context.Context, m Maintenance) error {
	return c.do(ctx, http.MethodPost, "/maintenances", m, nil)
}

func randomVIN(rng *rand.Rand) string {
	b := make([]byte, 17)
	for i := range b {
		b[i] = vinAlphabet[rng.Intn(len(vinAlphabet))]
	}
	return string(b)
}

func randomVehicle(rng *rand.Rand, now time.Time) Vehicle {
	vtype := vehicleTypes[rng.Intn(len(vehicleTypes))]
	models := vehicleModels[vtype]
	return Vehicle{
		VehicleType:    vtype,
		ChassisNumber:  randomVIN(rng),
		Model:          models[rng.Intn(len(models))],
		Year:           now.Year() - rng.Intn(8),
		CurrentMileage: int64(5000 + rng.Intn(150000)),
	}
}

// schedulesFor builds a spread of schedules so every computed status shows
// up: a mileage-based oil change close to due, a dated inspection and
// insurance renewal, and a tire change already past its date.
func schedulesFor(vehicleID string, v Vehicle, today time.Time, rng *rand.Rand) []Maintenance {
	day := func(offset int) string {
		return today.AddDate(0, 0, offset).Format(time.DateOnly)
	}
	lastOil := v.CurrentMileage - int64(9000+rng.Intn(900))
	nextOil := lastOil + 10000
	lastTires := v.CurrentMileage - 40000

	return []Maintenance{
		{
			VehicleID:       vehicleID,
			MaintenanceType: "oil",
			LastMileage:     &lastOil,
			NextMileage:     &nextOil,
		},
		{
			VehicleID:        vehicleID,
			MaintenanceType:  "kteo",
			LastDate:         day(-365 + rng.Intn(60)),
			NextDate:         day(rng.Intn(60)),
			NotificationDays: 14,
		},
		{
			VehicleID:       vehicleID,
			MaintenanceType: "insurance",
			NextDate:        day(30 + rng.Intn(300)),
		},
		{
			VehicleID:       vehicleID,
			MaintenanceType: "tires",
			NextDate:        day(-1 - rng.Intn(20)),
			LastMileage:     &lastTires,
			Notes:           "Seeded by simulator",
		},
	}
}

// advance drives the vehicle for hours of simulated time and returns the
// kilometres added. Speed wanders between 20 and 100 km/h.
func advance(s *VehicleState, hours float64, rng *rand.Rand) int64 {
	s.SpeedKmh += (rng.Float64()*2 - 1) * 5
	if s.SpeedKmh < 20 {
		s.SpeedKmh = 20
	}
	if s.SpeedKmh > 100 {
		s.SpeedKmh = 100
	}
	km := int64(s.SpeedKmh * hours)
	s.Vehicle.CurrentMileage += km
	return km
}

// seed creates fleetSize vehicles with their schedules. Vehicles that fail
// to be created are logged and skipped.
func seed(ctx context.Context, c *Client, fleetSize int, rng *rand.Rand, today time.Time) []*VehicleState {
	states := make([]*VehicleState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		v := randomVehicle(rng, today)
		id, err := c.CreateVehicle(ctx, v)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		log.WithFields(log.Fields{
			"vehicle_id": id,
			"type":       v.VehicleType,
			"model":      v.Model,
			"mileage":    v.CurrentMileage,
		}).Info("Created vehicle")

		for _, m := range schedulesFor(id, v, today, rng) {
			if err := c.CreateMaintenance(ctx, m); err != nil {
				log.WithError(err).WithField("type", m.MaintenanceType).Warn("Failed to create maintenance")
			}
		}
		states = append(states, &VehicleState{ID: id, Vehicle: v, SpeedKmh: 40 + rng.Float64()*40})
	}
	return states
}

// drive advances one vehicle every interval until ctx is done.
func drive(ctx context.Context, c *Client, s *VehicleState, interval time.Duration, hoursPerTick float64, rngSeed int64) {
	rng := rand.New(rand.NewSource(rngSeed))
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		km := advance(s, hoursPerTick, rng)
		if err := c.UpdateVehicle(ctx, s.ID, s.Vehicle); err != nil {
			if ctx.Err() == nil {
				log.WithError(err).WithField("vehicle_id", s.ID).Error("Failed to update odometer")
			}
			continue
		}
		log.WithFields(log.Fields{
			"vehicle_id": s.ID,
			"km":         km,
			"mileage":    s.Vehicle.CurrentMileage,
		}).Debug("Advanced odometer")
	}
}

func run(ctx context.Context, opts options) error {
	c := NewClient(opts.apiURL, opts.token)
	if c.token == "" {
		if err := c.Login(ctx, opts.username, opts.password); err != nil {
			return fmt.Errorf("login as %s: %w", opts.username, err)
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": opts.fleetSize,
		"api_url":    opts.apiURL,
		"interval":   opts.interval,
	}).Info("Starting fleet simulation")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	states := seed(ctx, c, opts.fleetSize, rng, time.Now())
	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		return errors.New("no vehicles created, check credentials and that the API is reachable")
	}

	var wg sync.WaitGroup
	for _, s := range states {
		wg.Add(1)
		go func(s *VehicleState, rngSeed int64) {
			defer wg.Done()
			drive(ctx, c, s, opts.interval, opts.hoursPerTick, rngSeed)
		}(s, rng.Int63())
	}
	log.Info("Odometer simulation started")
	wg.Wait()
	log.Info("Simulation stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	var opts options
	var tickSeconds int

	cmd := &cobra.Command{
		Use:   "simulator",
		Short: "Seed demo vehicles and maintenance, then keep odometers moving",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.fleetSize < 1 {
				return errors.New("--fleet-size must be at least 1")
			}
			if tickSeconds < 1 {
				return errors.New("--tick must be at least 1 second")
			}
			opts.interval = time.Duration(tickSeconds) * time.Second

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "api-url", envOr("API_BASE_URL", "http://localhost:8080/api"), "API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("SIM_AUTH_TOKEN"), "Bearer token, skips login when set")
	flags.StringVar(&opts.username, "username", envOr("SIM_USERNAME", "guest"), "Account to log in with")
	flags.StringVar(&opts.password, "password", os.Getenv("SIM_PASSWORD"), "Password for --username")
	flags.IntVar(&opts.fleetSize, "fleet-size", envIntOr("FLEET_SIZE", 5), "Number of vehicles to create")
	flags.IntVar(&tickSeconds, "tick", envIntOr("SIM_TICK_SECONDS", 2), "Seconds between odometer updates")
	flags.Float64Var(&opts.hoursPerTick, "hours-per-tick", 1, "Simulated driving hours per update")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
