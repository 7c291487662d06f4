package application

import "github.com/atvirokodosprendimai/maranzalife/internal/domain"

// CatalogActivity is a top-level activity with the sub-activities offered
// in its detail view.
type CatalogActivity struct {
	domain.Activity
	SubActivities []domain.Activity
}

type Catalog struct {
	Activities []CatalogActivity
	Items      []domain.Item
	Skills     []domain.Skill
}

const defaultSkillMaxLevel = 100

func DefaultCatalog() Catalog {
	return Catalog{
		Activities: []CatalogActivity{
			{
				Activity: domain.Activity{
					Title:       "Palestra",
					Description: "Un paio d'ore tra bilancieri e specchi.",
					Duration:    3,
					Effects:     domain.Effects{Respect: 25, Energy: -30},
					Category:    "fisico",
					Color:       "#e74c3c",
					Outcomes:    []string{"rispetto in aumento", "energia in calo"},
				},
				SubActivities: []domain.Activity{
					{Title: "Panca Piana", Description: "Tre serie pesanti.", Duration: 1, Effects: domain.Effects{Respect: 8, Energy: -10}, Category: "fisico", Color: "#e74c3c"},
					{Title: "Sacco da Boxe", Description: "Sfoga la tensione sul sacco.", Duration: 1, Effects: domain.Effects{Respect: 10, Energy: -12}, Category: "fisico", Color: "#c0392b"},
				},
			},
			{
				Activity: domain.Activity{
					Title:       "Serata in Discoteca",
					Description: "Lista, privé e musica fino all'alba.",
					Duration:    5,
					Effects:     domain.Effects{Reputation: 20, Style: 10, Energy: -40, Money: -50},
					Category:    "sociale",
					Color:       "#9b59b6",
					Outcomes:    []string{"reputazione alle stelle", "nuovi contatti", "portafoglio leggero"},
				},
				SubActivities: []domain.Activity{
					{Title: "Pista da Ballo", Description: "Fatti notare in pista.", Duration: 1, Effects: domain.Effects{Style: 5, Reputation: 5, Energy: -10}, Category: "sociale", Color: "#8e44ad"},
					{Title: "Privé", Description: "Un tavolo riservato per gli amici.", Duration: 2, Effects: domain.Effects{Reputation: 12, Money: -40}, Category: "sociale", Color: "#8e44ad"},
				},
			},
			{
				Activity: domain.Activity{
					Title:       "Shopping in Centro",
					Description: "Giro nei negozi giusti.",
					Duration:    2,
					Effects:     domain.Effects{Style: 15, Money: -80, Energy: -10},
					Category:    "stile",
					Color:       "#f1c40f",
					Outcomes:    []string{"stile migliorato", "soldi spesi"},
				},
				SubActivities: []domain.Activity{
					{Title: "Outlet", Description: "Caccia all'affare.", Duration: 1, Effects: domain.Effects{Style: 6, Money: -30}, Category: "stile", Color: "#f39c12"},
				},
			},
			{
				Activity: domain.Activity{
					Title:       "Giro in Motorino",
					Description: "Un giro del quartiere per farsi vedere.",
					Duration:    1,
					Effects:     domain.Effects{Reputation: 10, Energy: -5, Money: -10},
					Category:    "svago",
					Color:       "#3498db",
					Outcomes:    []string{"reputazione in aumento"},
				},
			},
			{
				Activity: domain.Activity{
					Title:       "Lavoretto al Bar",
					Description: "Un turno dietro al bancone.",
					Duration:    4,
					Effects:     domain.Effects{Money: 60, Energy: -25, Respect: 5},
					Category:    "lavoro",
					Color:       "#2ecc71",
					Outcomes:    []string{"soldi guadagnati", "energia in calo"},
				},
			},
			{
				Activity: domain.Activity{
					Title:       "Chill al Parchetto",
					Description: "Relax con la compagnia.",
					Duration:    2,
					Effects:     domain.Effects{Energy: 20, Reputation: 5},
					Category:    "svago",
					Color:       "#1abc9c",
					Outcomes:    []string{"energia recuperata"},
				},
			},
			{
				Activity: domain.Activity{
					Title:       "Consegne in Monopattino",
					Description: "Consegne a domicilio per la città.",
					Duration:    3,
					Effects:     domain.Effects{Money: 45, Energy: -20},
					UnlockDay:   2,
					Category:    "lavoro",
					Color:       "#27ae60",
					Outcomes:    []string{"soldi guadagnati"},
				},
			},
			{
				Activity: domain.Activity{
					Title:       "Sfida di Freestyle",
					Description: "Battle di rime in piazza.",
					Duration:    2,
					Effects:     domain.Effects{Respect: 15, Reputation: 15, Energy: -15},
					UnlockDay:   3,
					Category:    "sociale",
					Color:       "#e67e22",
					Outcomes:    []string{"rispetto guadagnato", "reputazione in aumento"},
				},
			},
		},
		Items: []domain.Item{
			{Name: "Tuta Acetata", Description: "Il classico intramontabile.", Price: 120, Category: domain.ItemCategoryClothing,
				Effects: []domain.ItemEffect{{Stat: domain.StatStyle, Value: 10}}},
			{Name: "Cappellino Visiera Piatta", Description: "Rigorosamente storto.", Price: 60, Category: domain.ItemCategoryAccessory,
				Effects: []domain.ItemEffect{{Stat: domain.StatStyle, Value: 8}}},
			{Name: "Marsupio Firmato", Description: "A tracolla, ovviamente.", Price: 200, Category: domain.ItemCategoryAccessory,
				Effects: []domain.ItemEffect{{Stat: domain.StatStyle, Value: 15}, {Stat: domain.StatReputation, Value: 5}}},
			{Name: "Energy Drink", Description: "Ali per la serata.", Price: 15, Category: domain.ItemCategoryConsumable,
				Effects: []domain.ItemEffect{{Stat: domain.StatEnergy, Value: 25}}},
			{Name: "Sigaretta Elettronica", Description: "Nuvole al gusto mango.", Price: 40, Category: domain.ItemCategoryConsumable,
				Effects: []domain.ItemEffect{{Stat: domain.StatStyle, Value: 5}, {Stat: domain.StatEnergy, Value: -5, Debuff: true}}},
			{Name: "Scarpe Bianche Limited", Description: "Da non sporcare mai.", Price: 350, Category: domain.ItemCategoryClothing, UnlockDay: 3,
				Effects: []domain.ItemEffect{{Stat: domain.StatStyle, Value: 20}, {Stat: domain.StatReputation, Value: 10}}},
			{Name: "Collana d'Oro", Description: "Si vede da lontano.", Price: 800, Category: domain.ItemCategorySpecial, UnlockDay: 5,
				Effects: []domain.ItemEffect{{Stat: domain.StatReputation, Value: 25}}},
		},
		Skills: []domain.Skill{
			{Name: "Forza", Description: "Potenza fisica in palestra e fuori."},
			{Name: "Ballo", Description: "Padronanza della pista."},
			{Name: "Parlantina", Description: "Convincere chiunque di qualsiasi cosa."},
			{Name: "Stile", Description: "Occhio per i capi giusti."},
			{Name: "Guida", Description: "Due ruote, zero paura."},
			{Name: "Freestyle", Description: "Rime improvvisate."},
		},
	}
}
