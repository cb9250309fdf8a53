package poster

// CaptionFunc produces a caption for the image about to be posted. The
// default is a static template; swapping in a smarter generator does not
// touch the posting contract.
type CaptionFunc func(imageData []byte) string

const defaultCaption = "Check out this amazing photo! 📸 #photography #instagood"

func StaticCaption(caption string) CaptionFunc {
	if caption == "" {
		caption = defaultCaption
	}
	return func([]byte) string {
		return caption
	}
}
