// Package i18n holds the user facing texts of the add image form.
package i18n

import "strings"

const (
	PtBR = "pt-BR"
	En   = "en"
)

// Catalog maps "<field>.<tag>" keys to field messages and carries the
// notification texts shown after a submit.
type Catalog struct {
	Locale   string
	Messages map[string]string

	NotUploadedTitle       string
	NotUploadedDescription string
	CreatedTitle           string
	CreatedDescription     string
	FailedTitle            string
	FailedDescription      string
}

var catalogs = map[string]Catalog{
	PtBR: {
		Locale: PtBR,
		Messages: map[string]string{
			"image.required":       "Arquivo obrigatório",
			"image.lt":             "O arquivo deve ser menor que 1MB",
			"image.oneof":          "Somente são aceitos arquivos PNG, JPEG e GIF",
			"image.upload":         "Falha no upload da imagem",
			"title.required":       "Título obrigatório",
			"title.min":            "Mínimo de 2 caracteres",
			"title.max":            "Máximo de 20 caracteres",
			"description.required": "Descrição obrigatória",
			"description.max":      "Máximo de 65 caracteres",
		},
		NotUploadedTitle:       "Imagem não adicionada",
		NotUploadedDescription: "É preciso adicionar e aguardar o upload de uma imagem antes de realizar o cadastro",
		CreatedTitle:           "Imagem cadastrada",
		CreatedDescription:     "Sua imagem foi cadastrada com sucesso",
		FailedTitle:            "Falha no cadastro",
		FailedDescription:      "Ocorreu um erro ao tentar cadastrar a sua imagem",
	},
	En: {
		Locale: En,
		Messages: map[string]string{
			"image.required":       "File is required",
			"image.lt":             "File must be smaller than 1MB",
			"image.oneof":          "Only PNG, JPEG and GIF files are accepted",
			"image.upload":         "Image upload failed",
			"title.required":       "Title is required",
			"title.min":            "At least 2 characters",
			"title.max":            "At most 20 characters",
			"description.required": "Description is required",
			"description.max":      "At most 65 characters",
		},
		NotUploadedTitle:       "Image not added",
		NotUploadedDescription: "Add an image and wait for the upload to finish before submitting",
		CreatedTitle:           "Image added",
		CreatedDescription:     "Your image was added successfully",
		FailedTitle:            "Submission failed",
		FailedDescription:      "Something went wrong while adding your image",
	},
}

// Lookup returns the catalog for locale, matching on the language when the
// region is unknown and falling back to pt-BR.
func Lookup(locale string) Catalog {
	if c, ok := catalogs[locale]; ok {
		return c
	}
	lang := strings.ToLower(strings.SplitN(locale, "-", 2)[0])
	for key, c := range catalogs {
		if strings.ToLower(strings.SplitN(key, "-", 2)[0]) == lang {
			return c
		}
	}
	return catalogs[PtBR]
}

// Message returns the text for "<field>.<tag>", or the key itself when missing.
func (c Catalog) Message(field, tag string) string {
	key := field + "." + tag
	if msg, ok := c.Messages[key]; ok {
		return msg
	}
	return key
}
