package services

import (
	"fmt"

	"vindoc-backend/internal/models"
	"vindoc-backend/internal/reminders"
)

type documentDefaults struct {
	cost         string
	tip          string
	consequences string
}

var documentFallbacks = map[string]documentDefaults{
	models.DocumentInsurance: {
		cost:         "₹2,000 - ₹15,000",
		tip:          "Compare quotes online before renewing and keep your no-claim bonus by renewing before the expiry date.",
		consequences: "Driving uninsured is punishable with a fine of up to ₹2,000 and leaves you liable for all third-party damages.",
	},
	models.DocumentPUCC: {
		cost:         "₹100 - ₹500",
		tip:          "Any authorised emission testing centre can issue a new certificate in a few minutes.",
		consequences: "Driving without a valid PUC certificate can attract a fine of up to ₹10,000.",
	},
	models.DocumentFitness: {
		cost:         "₹1,000 - ₹5,000",
		tip:          "Book an inspection slot at your RTO early and get minor repairs done before the test.",
		consequences: "A vehicle without a valid fitness certificate cannot legally be driven and may be impounded.",
	},
	models.DocumentRoadTax: {
		cost:         "Depends on your state and vehicle value",
		tip:          "Road tax can usually be paid online through the Parivahan portal.",
		consequences: "Unpaid road tax attracts penalties and the vehicle may be seized.",
	},
}

// FallbackAdvice builds advice from local data only.
func FallbackAdvice(alert *reminders.Alert) *reminders.Advice {
	advice := &reminders.Advice{Fallback: true}

	switch alert.Kind {
	case reminders.KindDocument:
		d, ok := documentFallbacks[alert.Subtype]
		if !ok {
			d = documentDefaults{
				cost:         "Varies",
				tip:          fmt.Sprintf("Renew your %s before it lapses.", alert.Label),
				consequences: "Driving with expired documents can lead to fines.",
			}
		}
		advice.EstimatedCost = d.cost
		advice.Tip = d.tip
		advice.Consequences = d.consequences
		advice.Urgency = bucketUrgency(alert.Bucket, reminders.UrgencyCritical, reminders.UrgencyHigh, reminders.UrgencyMedium)

	case reminders.KindService:
		advice.EstimatedCost = "Varies by service centre"
		advice.Tip = fmt.Sprintf("Book your %s at an authorised service centre ahead of time to get a convenient slot.", alert.Label)
		advice.Reminder = "Regular servicing keeps your warranty valid and prevents costly repairs."
		advice.Urgency = bucketUrgency(alert.Bucket, reminders.UrgencyHigh, reminders.UrgencyMedium, reminders.UrgencyLow)

	case reminders.KindLifespan:
		advice.EstimatedCost = "Re-registration fees vary by state"
		advice.Tip = fmt.Sprintf("Your vehicle is %d years old against a permitted %d years. Plan ahead before the registration lapses.",
			alert.VehicleAge, alert.MaxLifespan)
		advice.Options = "Apply for re-registration if permitted in your state, sell the vehicle, or scrap it at an authorised facility for a scrappage certificate."
		advice.EstimatedValue = "Depends on condition; get a valuation from a certified dealer."
		if alert.Bucket == reminders.BucketExceeded {
			advice.Urgency = reminders.UrgencyCritical
		} else {
			advice.Urgency = reminders.UrgencyHigh
		}

	default:
		advice.Tip = "Review this item on your VinDoc dashboard."
		advice.Urgency = reminders.UrgencyMedium
	}

	return advice
}

// bucketUrgency picks the urgency for past-due, 7-day and 30-day buckets.
func bucketUrgency(b reminders.Bucket, pastDue, week, month string) string {
	switch b {
	case reminders.BucketExpired, reminders.BucketOverdue:
		return pastDue
	case reminders.Bucket7Day:
		return week
	default:
		return month
	}
}
