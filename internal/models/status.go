package models

type PaymentStatus string

type RegistrationType string

type Gateway string

type GatewayMode string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const (
	RegistrationIndividual   RegistrationType = "individual"
	RegistrationOrganization RegistrationType = "organization"
)

const (
	GatewayPesapal Gateway = "pesapal"
	GatewayPaypal  Gateway = "paypal"
	GatewayMpesa   Gateway = "mpesa"
)

const (
	GatewayModeLive        GatewayMode = "live"
	GatewayModeMaintenance GatewayMode = "maintenance"
)

// Terminal reports whether no further status transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (g Gateway) Valid() bool {
	switch g {
	case GatewayPesapal, GatewayPaypal, GatewayMpesa:
		return true
	}
	return false
}
