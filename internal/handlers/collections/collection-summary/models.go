// internal/handlers/collections/collection-summary/models.go
package collectionsummary

import "collections-dashboard/internal/models"

type Input struct {
	EmiMonth string `json:"emi_month"`
}

type Output = models.CollectionSummary
