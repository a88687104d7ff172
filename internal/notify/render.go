package notify

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"flightmatrix/internal/airline"
	"flightmatrix/internal/models"
)

const displayDateLayout = "02/01/2006"

var fareAlertTemplate = template.Must(template.New("fare_alert").Parse(
	`Olá{{if .UserName}}, {{.UserName}}{{end}}!

Encontramos uma oferta para a sua rota {{.Origin}} → {{.Destination}}:

  Companhia: {{.Airline}}
  Preço:     {{.Price}}
  Ida:       {{.Departure}}{{if .Return}}
  Volta:     {{.Return}}{{end}}
  Paradas:   {{.Stops}}{{if .BookingURL}}

Reserve em: {{.BookingURL}}{{end}}

FlightMatrix
`))

var digestTemplate = template.Must(template.New("digest").Parse(
	`Olá{{if .UserName}}, {{.UserName}}{{end}}!

Resumo diário de ofertas ({{.Date}}):
{{range .Routes}}
{{.Origin}} → {{.Destination}}:{{range .Fares}}
  - {{.Airline}}: {{.Price}} ({{.Departure}}){{end}}
{{end}}
FlightMatrix
`))

type fareAlertData struct {
	UserName    string
	Origin      string
	Destination string
	Airline     string
	Price       string
	Departure   string
	Return      string
	Stops       int
	BookingURL  string
}

// RouteDeals is one route's section of a digest, fares already sorted by
// price.
type RouteDeals struct {
	Origin      string
	Destination string
	Fares       []models.Fare
}

type digestRouteData struct {
	Origin      string
	Destination string
	Fares       []digestFareData
}

type digestFareData struct {
	Airline   string
	Price     string
	Departure string
}

func formatPrice(f models.Fare) string {
	return fmt.Sprintf("%s %s", airline.Symbol(f.Currency), f.Price.StringFixed(2))
}

// RenderFareAlert produces the subject and body for one matched fare.
func RenderFareAlert(userName string, fare models.Fare) (subject, body string, err error) {
	data := fareAlertData{
		UserName:    userName,
		Origin:      fare.OriginCode,
		Destination: fare.DestinationCode,
		Airline:     fare.Airline,
		Price:       formatPrice(fare),
		Departure:   fare.DepartureDate.Format(displayDateLayout),
		Stops:       fare.Stops,
		BookingURL:  fare.BookingURL,
	}
	if fare.ReturnDate != nil {
		data.Return = fare.ReturnDate.Format(displayDateLayout)
	}

	var sb strings.Builder
	if err := fareAlertTemplate.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("failed to render fare alert: %w", err)
	}
	subject = fmt.Sprintf("Oferta %s → %s por %s", fare.OriginCode, fare.DestinationCode, data.Price)
	return subject, sb.String(), nil
}

// RenderDigest produces the subject and body for a day's deal summary.
func RenderDigest(userName string, date time.Time, routes []RouteDeals) (subject, body string, err error) {
	routeData := make([]digestRouteData, 0, len(routes))
	for _, r := range routes {
		rd := digestRouteData{Origin: r.Origin, Destination: r.Destination}
		for _, f := range r.Fares {
			rd.Fares = append(rd.Fares, digestFareData{
				Airline:   f.Airline,
				Price:     formatPrice(f),
				Departure: f.DepartureDate.Format(displayDateLayout),
			})
		}
		routeData = append(routeData, rd)
	}

	var sb strings.Builder
	err = digestTemplate.Execute(&sb, struct {
		UserName string
		Date     string
		Routes   []digestRouteData
	}{userName, date.Format(displayDateLayout), routeData})
	if err != nil {
		return "", "", fmt.Errorf("failed to render digest: %w", err)
	}
	subject = fmt.Sprintf("Resumo de ofertas - %s", date.Format(displayDateLayout))
	return subject, sb.String(), nil
}
