package i18n

var tableFR = [keyCount]string{
	StatusQueued:    "En attente",
	StatusRunning:   "En cours",
	StatusCompleted: "Terminé",
	StatusFailed:    "Échec",
	StatusUnknown:   "Inconnu",

	SummaryError:          "Erreur : %s",
	SummaryNoResult:       "Aucun résultat",
	SummaryNoMatches:      "Aucune correspondance",
	SummaryUnknownArtist:  "Artiste inconnu",
	SummaryUnknownTitle:   "Titre inconnu",
	SummaryScore:          "Score : %d %%",
	SummarySource:         "Source : %s",
	SummaryNote:           "Remarque : %s",
	SummarySecondaryError: "Erreur du fournisseur secondaire : %s",

	FormRequired:        "%s est obligatoire",
	FormTooShort:        "%s doit contenir au moins %s caractères",
	FormTooLong:         "%s doit contenir au plus %s caractères",
	FormInvalidEmail:    "%s doit être une adresse e-mail valide",
	FormMissingFile:     "Choisissez un fichier audio non vide à envoyer",
	FormUnsupportedType: "Type de fichier audio non pris en charge : %s",
	FormInvalid:         "%s n'est pas valide",

	LabelID:          "ID",
	LabelStatus:      "Statut",
	LabelUpdated:     "Mis à jour",
	LabelCreated:     "Créé",
	LabelFile:        "Fichier",
	LabelSummary:     "Résumé",
	LabelProgress:    "Progression",
	LabelFingerprint: "Empreinte",
	LabelDuration:    "Durée",
	LabelName:        "Nom",
	LabelUsername:    "Identifiant",
	LabelPassword:    "Mot de passe",
	LabelEmail:       "E-mail",
	LabelDisplayName: "Nom affiché",
	LabelRoles:       "Rôles",
	LabelFeatures:    "Fonctionnalités",
	LabelExpires:     "Expire",
	LabelOwner:       "Propriétaire",
	LabelState:       "État",
	LabelOptions:     "Options",

	ValueYes:      "oui",
	ValueNo:       "non",
	ValueNever:    "jamais",
	ValueActive:   "actif",
	ValueRevoked:  "révoqué",
	ValueDisabled: "désactivé",

	TitleJobs:     "Tâches",
	TitleJob:      "Tâche %s",
	TitleUpload:   "Identifier un audio",
	TitleLogin:    "Connexion",
	TitleRegister: "Créer un compte",
	TitleTokens:   "Jetons d'API",
	TitleUsers:    "Utilisateurs",

	ActionSignIn:   "Se connecter",
	ActionSignOut:  "Se déconnecter",
	ActionRegister: "S'inscrire",
	ActionUpload:   "Envoyer",
	ActionCreate:   "Créer",
	ActionSave:     "Enregistrer",
	ActionDelete:   "Supprimer",
	ActionRevoke:   "Révoquer",
	ActionBack:     "Retour",

	OptionSecondaryProvider: "Interroger le fournisseur secondaire",
	OptionStoreFingerprint:  "Conserver l'empreinte",
	OptionMetadataOnly:      "Lire uniquement les tags",

	MessageSignedInAs:     "Connecté en tant que %s",
	MessageSignedOut:      "Déconnecté",
	MessageNotSignedIn:    "Non connecté",
	MessageRegistered:     "Compte %s créé, vous pouvez vous connecter",
	MessageNoJobs:         "Aucune tâche pour l'instant",
	MessageUploadAccepted: "Envoi accepté : tâche %s",
	MessageTokenCreated:   "Jeton %s créé",
	MessageTokenShownOnce: "Copiez ce jeton maintenant, il ne sera plus affiché : %s",
	MessageTokenRevoked:   "Jeton %s révoqué",
	MessageUserCreated:    "Utilisateur %s créé",
	MessageUserUpdated:    "Utilisateur %s mis à jour",
	MessageUserDeleted:    "Utilisateur %s supprimé",
	MessageAdminOnly:      "Cette section est réservée aux administrateurs",
	MessageNoTokens:       "Aucun jeton d'API",
	MessageNoUsers:        "Aucun utilisateur",
	MessageWatching:       "Suivi de %d tâche(s), Ctrl+C pour arrêter",
	MessageRequestFailed:  "Échec de la requête : %s",
}
