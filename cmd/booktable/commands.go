package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"booktable/internal/api"
	"booktable/internal/booking"
	"booktable/internal/config"
	"booktable/internal/events"
	"booktable/internal/geo"
	"booktable/internal/manager"
	"booktable/internal/models"
	"booktable/internal/reservations"
	"booktable/internal/session"
	"booktable/internal/slots"
)

const usage = `usage: booktable <command> [flags]

commands:
  slots       list slots between opening and closing time
  suggest     show suggested slots around a time
  restaurant  show a restaurant and its slots for a date
  search      search restaurants
  nearby      list restaurants near you
  book        make a reservation
  bookings    list your bookings
  cancel      cancel a booking
  export      export your bookings to XLSX
  login       sign in with a one-time password
  logout      sign out
  profile     show the signed-in account
  manager     manage your restaurants (list|show|create|update)
  admin       administer listings (list|pending|approve|remove|analytics)
`

var errUsage = errors.New("invalid usage")

type app struct {
	cfg       *config.Config
	client    *api.Client
	sessions  *session.Store
	locations *geo.LocationCache
	bus       *events.EventBus
	in        io.Reader
	out       io.Writer
	logger    *zerolog.Logger

	reader *bufio.Reader
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return 2
	}

	commands := map[string]func(context.Context, []string) error{
		"slots":      a.cmdSlots,
		"suggest":    a.cmdSuggest,
		"restaurant": a.cmdRestaurant,
		"search":     a.cmdSearch,
		"nearby":     a.cmdNearby,
		"book":       a.cmdBook,
		"bookings":   a.cmdBookings,
		"cancel":     a.cmdCancel,
		"export":     a.cmdExport,
		"login":      a.cmdLogin,
		"logout":     a.cmdLogout,
		"profile":    a.cmdProfile,
		"manager":    a.cmdManager,
		"admin":      a.cmdAdmin,
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err := cmd(ctx, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		if msg := booking.BackendMessage(err); msg != "" {
			fmt.Fprintf(a.out, "error: %s\n", msg)
		} else {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
		a.logger.Debug().Err(err).Str("command", args[0]).Msg("command failed")
		return 1
	}
	return 0
}

func (a *app) stdin() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	return a.reader
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) suggestionRange() int {
	if a.cfg == nil {
		return slots.DefaultRange
	}
	return a.cfg.SuggestionRange()
}

func (a *app) zone() *time.Location {
	if a.cfg == nil {
		return time.Local
	}
	return a.cfg.Zone()
}

func (a *app) cmdSlots(_ context.Context, args []string) error {
	fs := a.flags("slots")
	open := fs.String("open", "", "opening time, HH:MM")
	closing := fs.String("close", "", "closing time, HH:MM")
	twelve := fs.Bool("12h", false, "print 12-hour labels")
	all := fs.Bool("all", false, "list every half hour of the day")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *all {
		for _, o := range slots.FullDayOptions() {
			fmt.Fprintf(a.out, "%s  %s\n", o.Value, o.Display)
		}
		return nil
	}
	if *open == "" || *closing == "" {
		fmt.Fprintln(a.out, "slots: -open and -close (or -all) are required")
		return errUsage
	}

	times, err := slots.GenerateSlots(*open, *closing)
	if err != nil {
		return err
	}
	for _, t := range times {
		if *twelve {
			t = displayTime(t)
		}
		fmt.Fprintln(a.out, t)
	}
	return nil
}

func (a *app) cmdSuggest(_ context.Context, args []string) error {
	fs := a.flags("suggest")
	open := fs.String("open", "", "opening time, HH:MM")
	closing := fs.String("close", "", "closing time, HH:MM")
	at := fs.String("time", "", "selected time")
	rng := fs.Int("range", a.suggestionRange(), "neighbours on each side")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *open == "" || *closing == "" || *at == "" {
		fmt.Fprintln(a.out, "suggest: -open, -close and -time are required")
		return errUsage
	}

	valid, err := slots.GenerateSlots(*open, *closing)
	if err != nil {
		return err
	}
	selected, err := parseTimeArg(*at)
	if err != nil {
		return err
	}
	suggested := slots.SuggestedWindow(selected, valid, *rng)
	if len(suggested) == 0 {
		fmt.Fprintf(a.out, "%s is not an available slot\n", displayTime(selected))
		return nil
	}
	for _, t := range suggested {
		marker := " "
		if t == selected {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s\n", marker, displayTime(t))
	}
	return nil
}

func (a *app) cmdRestaurant(ctx context.Context, args []string) error {
	fs := a.flags("restaurant")
	id := fs.Int64("id", 0, "restaurant id")
	date := fs.String("date", "", "date, YYYY-MM-DD (default today)")
	at := fs.String("time", "", "selected time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		fmt.Fprintln(a.out, "restaurant: -id is required")
		return errUsage
	}

	r, err := a.client.GetRestaurant(ctx, *id)
	if err != nil {
		return err
	}

	day := time.Now().In(a.zone())
	if *date != "" {
		d, err := models.ParseDate(*date)
		if err != nil {
			return err
		}
		day = d.Time
	}
	selected := slots.FormatMinutes(0)
	if *at != "" {
		if selected, err = parseTimeArg(*at); err != nil {
			return err
		}
	} else if cur, err := slots.Normalize(slots.CurrentSlot(time.Now().In(a.zone()))); err == nil {
		selected = cur
	}

	fmt.Fprintf(a.out, "%s (%s, %s)\n", r.Name, r.CuisineType, strings.Repeat("$", max(r.CostRating, 0)))
	fmt.Fprintf(a.out, "%s, %s %s\n", r.AddressLine, r.City, r.State)
	if r.ReviewCount > 0 {
		fmt.Fprintf(a.out, "rating %.1f (%d reviews)\n", r.AverageRating, r.ReviewCount)
	}

	valid, suggested := slots.ValidAndSuggested(day, selected, r, a.suggestionRange())
	if len(valid) == 0 {
		fmt.Fprintf(a.out, "closed on %s\n", day.Weekday())
		return nil
	}
	labels := make([]string, 0, len(valid))
	for _, t := range valid {
		labels = append(labels, displayTime(t))
	}
	fmt.Fprintf(a.out, "slots on %s: %s\n", day.Format(models.DateLayout), strings.Join(labels, ", "))
	if len(suggested) > 0 {
		labels = labels[:0]
		for _, t := range suggested {
			labels = append(labels, displayTime(t))
		}
		fmt.Fprintf(a.out, "suggested: %s\n", strings.Join(labels, ", "))
	}
	return nil
}

// coordinates uses the flags when set and the cached location otherwise.
func (a *app) coordinates(ctx context.Context, lat, lng float64) (float64, float64, error) {
	if lat != 0 || lng != 0 {
		return lat, lng, nil
	}
	loc, err := a.locations.Current(ctx)
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := a.flags("search")
	date := fs.String("date", time.Now().Format(models.DateLayout), "date, YYYY-MM-DD")
	at := fs.String("time", "19:00", "time")
	party := fs.Int("party", 2, "party size")
	text := fs.String("q", "", "search text")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	p := fs.Int("page", 1, "page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tm, err := parseTimeArg(*at)
	if err != nil {
		return err
	}
	la, lo, err := a.coordinates(ctx, *lat, *lng)
	if err != nil {
		return err
	}
	resp, err := a.client.SearchRestaurants(ctx, models.RestaurantSearchRequest{
		Date:       *date,
		Time:       tm,
		PartySize:  *party,
		Latitude:   la,
		Longitude:  lo,
		SearchText: *text,
	})
	if err != nil {
		return err
	}
	a.printRestaurants(resp, *p-1)
	return nil
}

func (a *app) cmdNearby(ctx context.Context, args []string) error {
	fs := a.flags("nearby")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	radius := fs.Int("radius", 0, "radius in miles")
	p := fs.Int("page", 1, "page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req *models.NearbyRestaurantRequest
	la, lo, err := a.coordinates(ctx, *lat, *lng)
	switch {
	case err == nil:
		req = &models.NearbyRestaurantRequest{Latitude: la, Longitude: lo, Radius: *radius}
	case errors.Is(err, geo.ErrLocationUnavailable):
		a.logger.Debug().Err(err).Msg("searching without location")
	default:
		return err
	}

	resp, err := a.client.NearbyRestaurants(ctx, req)
	if err != nil {
		return err
	}
	a.printRestaurants(resp, *p-1)
	return nil
}

func (a *app) printRestaurants(resp *models.RestaurantSearchResponse, p int) {
	items, index, total := page(resp.RestaurantSearchDetails, p)
	if total == 0 {
		fmt.Fprintln(a.out, "no restaurants found")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCUISINE\tCOST\tRATING\tDISTANCE\tSLOTS")
	for _, r := range items {
		distance := "-"
		if r.Distance != nil {
			distance = fmt.Sprintf("%.1f mi", *r.Distance)
		}
		labels := make([]string, 0, len(r.AvailableTimeSlots))
		for _, t := range r.AvailableTimeSlots {
			labels = append(labels, displayTime(t))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f\t%s\t%s\n",
			r.ID, r.Name, r.CuisineType, strings.Repeat("$", max(r.CostRating, 0)), r.AvgRating, distance, strings.Join(labels, " "))
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "page %d of %d (%d restaurants)\n", index+1, total, len(resp.RestaurantSearchDetails))
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	fs := a.flags("book")
	id := fs.Int64("restaurant", 0, "restaurant id")
	name := fs.String("name", "", "restaurant name")
	date := fs.String("date", "", "date, YYYY-MM-DD")
	at := fs.String("time", "", "time, e.g. 19:00 or 7:00 PM")
	party := fs.Int("party", 2, "party size")
	email := fs.String("email", "", "contact email")
	decision := fs.String("on-conflict", "", "keep or continue, asks when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := &booking.Form{
		RestaurantID:   *id,
		RestaurantName: *name,
		Date:           *date,
		PartySize:      *party,
		Email:          *email,
	}
	if *at != "" {
		tm, err := parseTimeArg(*at)
		if err != nil {
			return err
		}
		form.Time = tm
	}

	// The name lookup is a network call, so an invalid form stops here.
	if err := form.Validate(); err != nil {
		var ve *booking.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(a.out, "%s\n", ve.Message)
			return errUsage
		}
		return err
	}

	if form.RestaurantName == "" {
		if r, err := a.client.GetRestaurant(ctx, form.RestaurantID); err == nil {
			form.RestaurantName = r.Name
		} else {
			a.logger.Debug().Err(err).Int64("restaurant_id", form.RestaurantID).Msg("restaurant lookup")
		}
	}

	resolver := promptResolver{in: a.stdin(), out: a.out, preset: parseDecision(*decision)}
	sub := booking.NewSubmitter(a.client, resolver, terminalNotifier{a.out}, terminalNavigator{a.out}, a.logger)
	if a.bus != nil {
		sub.SetPublisher(a.bus)
	}

	res, err := sub.Submit(ctx, form)
	if err != nil {
		var ve *booking.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(a.out, "%s\n", ve.Message)
			return errUsage
		}
		return err
	}

	switch res.Outcome {
	case booking.OutcomeCreated:
		if res.Booking != nil && res.Booking.ID > 0 {
			fmt.Fprintf(a.out, "booking #%d confirmed\n", res.Booking.ID)
		}
	case booking.OutcomeDismissed:
		fmt.Fprintln(a.out, "nothing changed")
	}
	return nil
}

func (a *app) reservations() *reservations.Service {
	return reservations.NewService(a.client, a.zone(), a.logger)
}

func (a *app) cmdBookings(ctx context.Context, args []string) error {
	fs := a.flags("bookings")
	upcoming := fs.Bool("upcoming", false, "only active future bookings")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := a.reservations()
	var (
		list []models.Booking
		err  error
	)
	if *upcoming {
		list, err = svc.Upcoming(ctx)
	} else {
		list, err = svc.List(ctx)
	}
	if err != nil {
		return err
	}
	a.printBookings(list)
	return nil
}

func (a *app) printBookings(list []models.Booking) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "no bookings")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRESTAURANT\tDATE\tTIME\tPARTY\tSTATUS")
	for _, b := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			b.ID, displayName(b.RestaurantName), b.BookingDate, displayTime(b.BookingTime), b.PartySize, reservations.StatusLabel(b.Status))
	}
	_ = tw.Flush()
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	fs := a.flags("cancel")
	id := fs.Int64("id", 0, "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		fmt.Fprintln(a.out, "cancel: -id is required")
		return errUsage
	}

	list, err := a.reservations().CancelIfActive(ctx, *id)
	if err != nil {
		return err
	}
	if err := a.bus.PublishJSON(events.TypeBookingCancelled, map[string]int64{"bookingId": *id}); err != nil {
		a.logger.Warn().Err(err).Msg("publish cancel event")
	}
	fmt.Fprintf(a.out, "booking #%d cancelled\n", *id)
	a.printBookings(list)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := a.flags("export")
	path := fs.String("o", "bookings.xlsx", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Create(*path)
	if err != nil {
		return err
	}
	n, err := a.reservations().Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(*path)
		return err
	}
	fmt.Fprintf(a.out, "exported %d bookings to %s\n", n, *path)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := models.SendOTPRequest{Identifier: models.OTPEmail, Value: strings.TrimSpace(*email)}
	if req.Value == "" {
		req = models.SendOTPRequest{Identifier: models.OTPPhone, Value: strings.TrimSpace(*phone)}
	}
	if req.Value == "" {
		fmt.Fprintln(a.out, "login: -email or -phone is required")
		return errUsage
	}

	sent, err := a.client.SendOTP(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "code sent to %s\nenter code: ", req.Value)
	code, err := readLine(ctx, a.stdin())
	if err != nil {
		return err
	}

	verified, err := a.client.VerifyOTP(ctx, models.VerifyOTPRequest{
		Identifier: req.Identifier,
		Value:      req.Value,
		OTP:        code,
		Session:    sent.Session,
	})
	if err != nil {
		return err
	}

	if verified.RequiresRegistration {
		if err := a.register(ctx, req); err != nil {
			return err
		}
	}

	if token := a.client.Token(); token != "" {
		if err := a.sessions.Save(ctx, token); err != nil {
			a.logger.Warn().Err(err).Msg("session not persisted")
		}
	}

	role := verified.UserRole
	if claims, err := a.sessions.Claims(ctx); err == nil {
		role = claims.Role()
	}
	fmt.Fprintf(a.out, "signed in as %s (home %s)\n", role, role.HomePath())
	return nil
}

func (a *app) register(ctx context.Context, otp models.SendOTPRequest) error {
	in := a.stdin()
	fmt.Fprint(a.out, "first name: ")
	first, err := readLine(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, "last name: ")
	last, err := readLine(ctx, in)
	if err != nil {
		return err
	}

	req := models.RegistrationRequest{FirstName: first, LastName: last, Role: models.RoleCustomer}
	if otp.Identifier == models.OTPEmail {
		req.Email = otp.Value
	} else {
		req.PhoneNumber = otp.Value
	}
	return a.client.Register(ctx, req)
}

func (a *app) cmdLogout(ctx context.Context, _ []string) error {
	err := a.client.Logout(ctx)
	if cerr := a.sessions.Clear(ctx); cerr != nil {
		a.logger.Warn().Err(cerr).Msg("clear saved session")
	}
	if err != nil {
		a.logger.Debug().Err(err).Msg("backend logout")
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *app) cmdProfile(ctx context.Context, _ []string) error {
	p, err := a.client.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\nemail: %s\nphone: %s\nrole: %s\n", p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.Role)
	return nil
}

func (a *app) managerService() *manager.Service {
	return manager.NewService(a.client, a.sessions, a.logger)
}

func readListing(path string) (manager.Listing, error) {
	var l manager.Listing
	data, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &l); err != nil {
		return l, fmt.Errorf("parse %s: %w", path, err)
	}
	return l, nil
}

func (a *app) cmdManager(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "manager: list|show|create|update")
		return errUsage
	}
	fs := a.flags("manager " + args[0])
	id := fs.Int64("id", 0, "restaurant id")
	file := fs.String("f", "", "listing YAML file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	svc := a.managerService()

	switch args[0] {
	case "list":
		own, err := svc.ListOwn(ctx)
		if err != nil {
			return err
		}
		a.printRestaurants(&models.RestaurantSearchResponse{Count: len(own), RestaurantSearchDetails: own}, 0)
		return nil
	case "show":
		l, err := svc.Edit(ctx, *id)
		if err != nil {
			return err
		}
		return yaml.NewEncoder(a.out).Encode(l)
	case "create", "update":
		if *file == "" {
			fmt.Fprintf(a.out, "manager %s: -f is required\n", args[0])
			return errUsage
		}
		l, err := readListing(*file)
		if err != nil {
			return err
		}
		var summary *models.RestaurantSummary
		if args[0] == "create" {
			summary, err = svc.Create(ctx, l)
		} else {
			summary, err = svc.Update(ctx, *id, l)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "restaurant #%d %s (approved: %t)\n", summary.ID, summary.Name, summary.Approved)
		return nil
	}
	fmt.Fprintf(a.out, "manager: unknown action %q\n", args[0])
	return errUsage
}

func (a *app) cmdAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "admin: list|pending|approve|remove|analytics")
		return errUsage
	}
	fs := a.flags("admin " + args[0])
	id := fs.Int64("id", 0, "restaurant id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	svc := a.managerService()

	switch args[0] {
	case "list", "pending":
		var (
			list []models.RestaurantSummary
			err  error
		)
		if args[0] == "list" {
			list, err = svc.ListAll(ctx)
		} else {
			list, err = svc.ListPending(ctx)
		}
		if err != nil {
			return err
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		for _, r := range list {
			fmt.Fprintf(a.out, "%d\t%s\tapproved=%t\n", r.ID, r.Name, r.Approved)
		}
		return nil
	case "approve":
		r, err := svc.Approve(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "restaurant #%d approved\n", r.ID)
		return nil
	case "remove":
		if err := svc.Remove(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "restaurant #%d removed\n", *id)
		return nil
	case "analytics":
		s, err := svc.Analytics(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s to %s: %d reservations, %.1f per day\n", s.StartDate, s.EndDate, s.TotalReservations, s.AverageReservationsPerDay)
		for i, r := range s.MostPopularRestaurants {
			fmt.Fprintf(a.out, "%d. %s\n", i+1, r.Name)
		}
		return nil
	}
	fmt.Fprintf(a.out, "admin: unknown action %q\n", args[0])
	return errUsage
}
