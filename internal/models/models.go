package models

// AllModels lists every table managed by AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&OTP{},
		&Event{},
		&TicketType{},
		&Profile{},
		&Booking{},
		&PaymentNotification{},
		&RevokedToken{},
	}
}
