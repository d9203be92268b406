// Package i18n holds the message catalogs of the user interface.
// French is the default language; English is the only alternative.
package i18n

import (
	"fmt"
	"strings"
)

const DefaultLang = "fr"

var catalogs = map[string]map[string]string{
	"fr": {
		"required":         "Requis",
		"not_alphanumeric": "Caractères alphanumériques uniquement",

		"app.title":           "GoldenLine",
		"nav.home":            "Accueil",
		"nav.analyses":        "Analyses",
		"nav.export":          "Exportation",
		"nav.users":           "Utilisateurs",
		"nav.register":        "Enregistrement",
		"nav.login":           "Connexion",
		"nav.logout":          "Déconnexion",
		"home.welcome":        "Bienvenue sur GoldenLine",
		"home.greeting":       "Bonjour %s",
		"home.intro":          "Analyse des paniers d'achat par catégorie socioprofessionnelle.",
		"login.title":         "Connexion",
		"login.submit":        "Se connecter",
		"field.username":      "Nom d'utilisateur",
		"field.lastname":      "Nom",
		"field.firstname":     "Prénom",
		"field.email":         "Email",
		"field.password":      "Mot de passe",
		"field.password2":     "Confirmation du mot de passe",
		"field.admin":         "Administrateur",
		"field.view_client":   "Voir les analyses",
		"field.view_collecte": "Exporter les collectes",
		"analyses.title":      "Analyses",
		"analyses.averages":   "Prix moyen du panier",
		"analyses.category":   "Catégorie",
		"analyses.socio":      "Catégorie socioprofessionnelle",
		"analyses.average":    "Moyenne",
		"analyses.totals":     "Dépenses par catégorie",
		"analyses.empty":      "Aucune donnée",
		"export.title":        "Exportation des données",
		"export.rows":         "Nombre de lignes",
		"export.submit":       "Exporter",
		"export.bad_rows":     "Nombre de lignes invalide",
		"users.title":         "Liste des utilisateurs",
		"users.edit":          "Modifier",
		"users.delete":        "Supprimer",
		"users.active":        "Actif",
		"register.title":      "Enregistrement",
		"register.submit":     "Créer le compte",
		"edit.title":          "Modifier l'utilisateur",
		"edit.password_hint":  "Laisser vide pour ne pas changer",
		"edit.submit":         "Enregistrer",
		"error.forbidden":     "Accès refusé",
		"error.not_found":     "Page introuvable",
		"error.internal":      "Erreur interne du serveur",

		"flash.username_taken":            "Ce nom a été déjà pris",
		"flash.email_taken":               "Cette email possède déjà un compte",
		"flash.username_not_alnum":        "Le nom doit utilisé uniquement des caractères alphanumériques",
		"flash.password_mismatch":         "Les deux mots de passes ne sont pas identiques",
		"flash.account_created":           "Votre compte a été créer avec succès",
		"flash.update_username_taken":     "Ce nom d'utilisateur est déjà pris. Veuillez en choisir un autre.",
		"flash.update_email_taken":        "Cet email est déjà associé à un compte. Veuillez en choisir un autre.",
		"flash.update_username_not_alnum": "Le nom d'utilisateur doit utiliser uniquement des caractères alphanumériques.",
		"flash.user_deleted":              "L'utilisateur %s a été supprimé avec succès.",
		"flash.bad_login":                 "Mauvaise authentification",
		"flash.logged_out":                "Vous avez été déconnecter",
	},
	"en": {
		"required":         "Required",
		"not_alphanumeric": "Letters and digits only",

		"app.title":           "GoldenLine",
		"nav.home":            "Home",
		"nav.analyses":        "Analyses",
		"nav.export":          "Export",
		"nav.users":           "Users",
		"nav.register":        "Register",
		"nav.login":           "Log in",
		"nav.logout":          "Log out",
		"home.welcome":        "Welcome to GoldenLine",
		"home.greeting":       "Hello %s",
		"home.intro":          "Shopping basket analysis by socio-professional category.",
		"login.title":         "Log in",
		"login.submit":        "Log in",
		"field.username":      "Username",
		"field.lastname":      "Last name",
		"field.firstname":     "First name",
		"field.email":         "Email",
		"field.password":      "Password",
		"field.password2":     "Confirm password",
		"field.admin":         "Administrator",
		"field.view_client":   "View analyses",
		"field.view_collecte": "Export collections",
		"analyses.title":      "Analyses",
		"analyses.averages":   "Average basket price",
		"analyses.category":   "Category",
		"analyses.socio":      "Socio-professional category",
		"analyses.average":    "Average",
		"analyses.totals":     "Spending per category",
		"analyses.empty":      "No data",
		"export.title":        "Data export",
		"export.rows":         "Number of rows",
		"export.submit":       "Export",
		"export.bad_rows":     "Invalid number of rows",
		"users.title":         "Users",
		"users.edit":          "Edit",
		"users.delete":        "Delete",
		"users.active":        "Active",
		"register.title":      "Register",
		"register.submit":     "Create account",
		"edit.title":          "Edit user",
		"edit.password_hint":  "Leave empty to keep the current one",
		"edit.submit":         "Save",
		"error.forbidden":     "Access denied",
		"error.not_found":     "Page not found",
		"error.internal":      "Internal server error",

		"flash.username_taken":            "This username is already taken",
		"flash.email_taken":               "This email already has an account",
		"flash.username_not_alnum":        "The username must only use alphanumeric characters",
		"flash.password_mismatch":         "The two passwords do not match",
		"flash.account_created":           "Your account was created successfully",
		"flash.update_username_taken":     "This username is already taken. Please choose another one.",
		"flash.update_email_taken":        "This email is already linked to an account. Please choose another one.",
		"flash.update_username_not_alnum": "The username must only use alphanumeric characters.",
		"flash.user_deleted":              "User %s was deleted successfully.",
		"flash.bad_login":                 "Authentication failed",
		"flash.logged_out":                "You have been logged out",
	},
}

// T returns the message for code in lang, then in French, then code itself.
func T(lang, code string) string {
	if m, ok := catalogs[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalogs[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Tf is T followed by fmt.Sprintf.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalogs[lang]
	return ok
}

// DetectLanguage picks "en" when the Accept-Language header starts with
// English, "fr" otherwise.
func DetectLanguage(acceptLanguage string) string {
	first, _, _ := strings.Cut(acceptLanguage, ",")
	first, _, _ = strings.Cut(first, ";")
	first = strings.ToLower(strings.TrimSpace(first))
	if first == "en" || strings.HasPrefix(first, "en-") {
		return "en"
	}
	return DefaultLang
}
