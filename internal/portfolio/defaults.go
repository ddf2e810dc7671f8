package portfolio

// Built-in demo content served whenever a section has never been written.
var (
	defaultBio = `Hello! I'm Alex Chen, a passionate graphic designer with over 5 years of experience creating compelling visual identities, branding solutions, and digital experiences. I believe in the power of design to communicate, inspire, and transform.`

	defaultPortfolio = []Project{
		{ID: 1, Title: "Brand Identity Project", Description: "Complete brand identity for a tech startup", Category: "branding", Image: "fas fa-image"},
		{ID: 2, Title: "Logo Design Collection", Description: "Modern logo designs for various industries", Category: "logo", Image: "fas fa-cube"},
		{ID: 3, Title: "Print Design Campaign", Description: "Marketing materials and print advertisements", Category: "print", Image: "fas fa-print"},
		{ID: 4, Title: "Digital Design Portfolio", Description: "Web and mobile app design projects", Category: "digital", Image: "fas fa-laptop"},
		{ID: 5, Title: "Corporate Branding", Description: "Brand identity for corporate clients", Category: "branding", Image: "fas fa-briefcase"},
		{ID: 6, Title: "Creative Logo Series", Description: "Innovative logo designs and concepts", Category: "logo", Image: "fas fa-star"},
	}

	defaultServices = []Service{
		{ID: 1, Title: "Brand Identity", Description: "Complete brand identity design including logo, color palette, typography, and brand guidelines.", Icon: "fas fa-palette"},
		{ID: 2, Title: "Logo Design", Description: "Custom logo design that captures your brand's essence and stands out in the market.", Icon: "fas fa-vector-square"},
		{ID: 3, Title: "Print Design", Description: "Professional print materials including brochures, business cards, posters, and marketing collateral.", Icon: "fas fa-print"},
		{ID: 4, Title: "Digital Design", Description: "Modern web and mobile app design with focus on user experience and visual appeal.", Icon: "fas fa-mobile-alt"},
	}

	defaultSkills = []string{
		"Brand Identity", "Logo Design", "Print Design", "Digital Design",
		"Adobe Creative Suite", "Figma", "UI/UX Design", "Typography",
	}
)

// Defaults returns a fresh copy of the full default document.
func Defaults() Document {
	d := Document{
		Portfolio: defaultPortfolio,
		Services:  defaultServices,
		About: About{
			Name:       "Alex Chen",
			Profession: "Creative Graphic Designer",
			Bio:        defaultBio,
			Projects:   "150",
			Clients:    "50",
			Experience: "5",
			Skills:     defaultSkills,
		},
		Contact: Contact{
			Email:    "alex.chen@email.com",
			Phone:    "+1 (555) 123-4567",
			Location: "New York, NY",
		},
		Settings: Settings{
			PrimaryColor:         "#667eea",
			SecondaryColor:       "#764ba2",
			PortfolioTitle:       "Alex Chen - Graphic Designer Portfolio",
			PortfolioDescription: "A modern, responsive portfolio showcasing creative graphic design work and branding solutions.",
		},
		Images: Images{
			BackgroundOpacity: "50",
		},
	}
	return d.Clone()
}
