package domain

import "time"

type PlanID string

const (
	PlanFree     PlanID = "free"
	PlanEventual PlanID = "eventual"
	PlanMensual  PlanID = "mensual"
	PlanAnual    PlanID = "anual"
)

// TaxPercent is the VAT applied on top of every plan price.
const TaxPercent = 19

// Plan prices are in cents of the charge currency.
type Plan struct {
	ID          PlanID   `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

var Plans = []Plan{
	{
		ID: PlanFree, Name: "Gratuito", Price: 0,
		Description: "Para conocer el servicio",
		Features:    []string{"1 consulta gratuita", "Chatbot legal"},
	},
	{
		ID: PlanEventual, Name: "Eventual", Price: 49900,
		Description: "Para consultas ocasionales",
		Features:    []string{"Cita virtual de 30 minutos", "Hasta 2 especialidades", "Recomendación por escrito", "Prioridad en agenda"},
	},
	{
		ID: PlanMensual, Name: "Mensual", Price: 199900,
		Description: "Para necesidades continuas",
		Features:    []string{"1 hora semanal de consultas", "Todas las especialidades", "Consultas ilimitadas", "Revisión de documentos"},
	},
	{
		ID: PlanAnual, Name: "Anual", Price: 1999000,
		Description: "La mejor opción",
		Features:    []string{"1 día/semana de asesoría", "Hasta 2 especialidades", "Descuento de 20% vs. plan mensual", "Acceso prioritario"},
	},
}

func FindPlan(id PlanID) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Purchasable reports whether the plan can be bought through a payment.
func (p Plan) Purchasable() bool { return p.Price > 0 }

// Tax is TaxPercent of price, rounded half up.
func Tax(price int64) int64 {
	return (price*TaxPercent + 50) / 100
}

// TotalWithTax is price plus Tax(price), so subtotal and tax always add up
// to the charged total.
func TotalWithTax(price int64) int64 {
	return price + Tax(price)
}

// NextBillingDate is nil for one-off plans.
func (p Plan) NextBillingDate(from time.Time) *time.Time {
	var next time.Time
	switch p.ID {
	case PlanMensual:
		next = from.AddDate(0, 1, 0)
	case PlanAnual:
		next = from.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &next
}

type PaymentMethod string

const (
	MethodCreditCard  PaymentMethod = "creditCard"
	MethodMercadoPago PaymentMethod = "mercadoPago"
)

func (m PaymentMethod) Valid() bool { return m == MethodCreditCard || m == MethodMercadoPago }
