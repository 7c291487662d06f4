package application

// Tables holds the random-event configuration used by the resolver.
type Tables struct {
	ContactChance    float64
	SkillChance      float64
	SkillProgressMin int
	SkillProgressMax int // exclusive

	Outcomes        map[string][]string
	FallbackOutcome string
	RelevantSkills  map[string][]string

	ContactFirstNames []string
	ContactLastNames  []string
	ContactTypes      []string
	ContactColors     []string
}

func DefaultTables() Tables {
	return Tables{
		ContactChance:    0.5,
		SkillChance:      0.7,
		SkillProgressMin: 5,
		SkillProgressMax: 20,
		Outcomes: map[string][]string{
			"Palestra": {
				"Hai spaccato in sala pesi, tutti ti guardano con rispetto.",
				"Serie infinite allo specchio: bicipiti pompati e storie su Instagram.",
				"Il personal trainer ti ha fatto i complimenti per la panca.",
			},
			"Serata in Discoteca": {
				"Sei entrato in lista senza pagare e hai ballato fino alle luci.",
				"Il buttafuori ti ha salutato per nome davanti a tutti.",
				"Hai offerto un giro al privé: portafoglio leggero, reputazione alle stelle.",
			},
			"Shopping in Centro": {
				"Hai trovato l'ultimo paio di scarpe limited nella tua taglia.",
				"Sei uscito con tre buste e lo sguardo di chi ha vinto.",
			},
			"Giro in Motorino": {
				"Impennata davanti al bar, applausi dal tavolino.",
				"Giro del quartiere con la musica a palla.",
			},
			"Lavoretto al Bar": {
				"Turno tranquillo e mance generose.",
				"Hai servito cento spritz senza rovesciarne uno.",
			},
			"Chill al Parchetto": {
				"Panchina, cassa bluetooth e zero pensieri.",
				"Hai ricaricato le batterie con la compagnia giusta.",
			},
			"Sfida di Freestyle": {
				"Rime taglienti: hai chiuso il cerchio tra le urla.",
				"Il tuo avversario non ha trovato le parole per rispondere.",
			},
			"Consegne in Monopattino": {
				"Consegne lampo, recensioni a cinque stelle.",
				"Hai attraversato la città in tempo record.",
			},
			"Panca Piana": {
				"Nuovo massimale, segnato sul quaderno.",
			},
			"Sacco da Boxe": {
				"Il sacco ha tremato a ogni colpo.",
			},
			"Pista da Ballo": {
				"Hai aperto il cerchio con un passo mai visto.",
			},
			"Privé": {
				"Divanetti, bottiglia e sguardi invidiosi.",
			},
			"Outlet": {
				"Affare del giorno: felpa firmata a metà prezzo.",
			},
		},
		FallbackOutcome: "Hai passato un po' di tempo in giro per il quartiere.",
		RelevantSkills: map[string][]string{
			"Palestra":                {"Forza"},
			"Panca Piana":             {"Forza"},
			"Sacco da Boxe":           {"Forza"},
			"Serata in Discoteca":     {"Ballo", "Parlantina"},
			"Pista da Ballo":          {"Ballo"},
			"Privé":                   {"Parlantina"},
			"Shopping in Centro":      {"Stile"},
			"Outlet":                  {"Stile"},
			"Giro in Motorino":        {"Guida"},
			"Consegne in Monopattino": {"Guida"},
			"Lavoretto al Bar":        {"Parlantina"},
			"Sfida di Freestyle":      {"Freestyle", "Parlantina"},
		},
		ContactFirstNames: []string{"Kevin", "Jordan", "Yassine", "Gianni", "Samir", "Denis", "Alessio", "Cristian", "Ilaria", "Giada", "Sharon", "Jessica"},
		ContactLastNames:  []string{"Rossi", "Esposito", "Ferrari", "Russo", "Bianchi", "Romano", "Colombo", "Ricci"},
		ContactTypes:      []string{"amico", "conoscente", "rivale", "compagno di palestra", "buttafuori", "barista"},
		ContactColors:     []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#9b59b6", "#e67e22"},
	}
}
