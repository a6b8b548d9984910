package seed

const classroomFixture = `
categories:
  - slug: animals
    name: Animals
    translated_name: Tiere
    children:
      - slug: mammals
        name: Mammals
  - slug: words
    name: Words
scopes:
  - slug: grade-2
    name: Grade 2
items:
  - title: Mammal
    image_url: https://cdn.example.test/mammal.png
    categories: [mammals]
    scopes: [grade-2]
    count: 5
  - title: Word
    audio_url: https://cdn.example.test/word.mp3
    categories: [words]
    count: 5
  - title: Sketch
    draft: true
    categories: [words]
quiz_configs:
  - category: words
    prompt: text
    answer: audio
enabled_scopes: [grade-2]
`
