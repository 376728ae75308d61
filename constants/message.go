package constants

const (
	ERROR_INPUT                = "Données invalides"
	ERROR_INTERNAL_ERROR       = "Une erreur est survenue, merci de réessayer"
	ERROR_NOT_CONFIGURED       = "Service non configuré"
	ERROR_PARSE_DATA_TO_LOCALS = "Impossible de lire les données de la requête"
	ERROR_STORAGE              = "Erreur d'enregistrement"
	ERROR_STALE_REVISION       = "Les données ont été modifiées entre-temps, rechargez la page"
	ERROR_DOCUMENT_NOT_FOUND   = "Document introuvable sur le dépôt"
	ERROR_STORAGE_UNAUTHORIZED = "Accès au dépôt refusé, vérifiez le jeton"
	INVALID_DATE               = "Date invalide (format AAAA-MM-JJ)"
	INVALID_MONTH              = "Mois invalide (format AAAA-MM)"
	MISSING_CLOSURE_REASONS    = "Indiquez au moins une raison de fermeture"
	CLOSURE_ADDED              = "Fermeture ajoutée"
	CLOSURE_REMOVED            = "Fermeture retirée, la date est de nouveau ouverte"
	CLOSURES_PUBLISHED         = "Fermetures publiées"

	MISSING_LOGIN_INPUT    = "Identifiant et mot de passe requis"
	INVALID_CREDENTIALS    = "Identifiant ou mot de passe incorrect"
	MISSING_TOKEN          = "Authentification requise"
	INVALID_TOKEN          = "Session invalide ou expirée"
	NOT_ADMIN              = "Réservé aux administrateurs"
	ACCOUNT_NOT_PERMISSION = "Accès non autorisé"
	LOGIN_SUCCESS          = "Connexion réussie"
	LOGOUT_SUCCESS         = "Déconnexion réussie"

	TICKET_VALID         = "Billet valide, bonne descente !"
	TICKET_NOT_FOUND     = "Billet introuvable"
	TICKET_ALREADY_USED  = "Billet déjà utilisé le %s"
	TICKET_EXPIRED_MSG   = "Billet expiré depuis le %s"
	TICKETS_NOT_READY    = "Paiement non confirmé pour le moment, vos billets arrivent"
	TICKETS_FAILED       = "Impossible de récupérer vos billets. Appelez-nous au %s"
	CHECKOUT_FAILED      = "Le paiement n'a pas pu être initié. Appelez-nous au %s"
	CART_EMPTY           = "Votre panier est vide"
	UNKNOWN_SEASON       = "Produit inconnu"
	GIFT_TICKETS_CREATED = "Billets cadeaux créés"

	WEBHOOK_INVALID_SIGNATURE = "Signature invalide"
	CONTACT_SENT              = "Message envoyé, nous revenons vers vous rapidement"
	CONTACT_FAILED            = "Le message n'a pas pu être envoyé. Appelez-nous au %s"
)
